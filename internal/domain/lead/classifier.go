package lead

import (
	"log"
	"regexp"
	"strings"
)

// CustomFieldSuffix is appended to a source field name to form the
// fully-qualified name of the provisionable remote field.
const CustomFieldSuffix = "__c"

// dynamicPrefixes are the three name families that mark a field as
// dynamic (provisionable). A dynamic name is a prefix followed by a
// two-digit ordinal, e.g. "Q01", "D17", "C09".
var dynamicPrefixes = [3]string{"Q", "D", "C"}

var dynamicNamePattern = regexp.MustCompile(`^[QDC][0-9]{2}$`)

// remoteAPINamePattern validates a fully-qualified remote custom field
// API name (alias candidates must already carry the suffix).
var remoteAPINamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*__c$`)

// CandidateField is a dynamic field selected for transfer.
type CandidateField struct {
	RemoteName   string      // fully-qualified name used against the remote schema
	SourceName   string      // bare name as it appears in the source record
	Value        interface{} // may be nil: "clear this value" is an instruction
	DisplayLabel string      // label used when the field has to be provisioned
}

// IsDynamicFieldName reports whether the name belongs to the dynamic
// (provisionable) field family.
func IsDynamicFieldName(name string) bool {
	return dynamicNamePattern.MatchString(name)
}

// RemoteFieldName derives the remote schema name from a source name by
// appending the provisioning suffix if not already present.
func RemoteFieldName(sourceName string) string {
	if strings.HasSuffix(sourceName, CustomFieldSuffix) {
		return sourceName
	}
	return sourceName + CustomFieldSuffix
}

// IsValidRemoteAPIName reports whether s is usable as-is as a remote
// custom field API name.
func IsValidRemoteAPIName(s string) bool {
	return remoteAPINamePattern.MatchString(s)
}

// Classify extracts the dynamic fields of a record that are eligible for
// transfer. It is a pure function: no hidden state, no side effects
// beyond logging skipped fields.
//
// A field is included iff its name matches the dynamic pattern AND
// (activeFields is nil OR its bare or qualified name is in activeFields).
// Nil values are preserved so that clearing a remote field stays an
// explicit instruction.
//
// labels carries optional per-field display labels. A label that is
// itself a valid remote API name acts as a field alias: it replaces the
// derived remote name for transmission and provisioning.
func Classify(record Record, labels map[string]string, activeFields []string) []CandidateField {
	var activeSet map[string]struct{}
	if activeFields != nil {
		activeSet = make(map[string]struct{}, len(activeFields))
		for _, name := range activeFields {
			activeSet[name] = struct{}{}
		}
	}

	var candidates []CandidateField
	for name, value := range record {
		if !IsDynamicFieldName(name) {
			continue
		}

		remoteName := RemoteFieldName(name)

		if activeSet != nil {
			_, bareOK := activeSet[name]
			_, qualifiedOK := activeSet[remoteName]
			if !bareOK && !qualifiedOK {
				log.Printf("⏭️  Skipping dynamic field %s: not in active field set", name)
				continue
			}
		}

		label := labels[name]
		if label == "" {
			label = name
		}

		// Field alias: a label that is itself a valid remote API name
		// overrides the derived remote name.
		if label != remoteName && IsValidRemoteAPIName(label) {
			remoteName = label
		}

		candidates = append(candidates, CandidateField{
			RemoteName:   remoteName,
			SourceName:   name,
			Value:        value,
			DisplayLabel: label,
		})
	}

	return candidates
}
