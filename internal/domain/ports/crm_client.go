package ports

import (
	"context"
	"time"
)

// PicklistValue is one constrained value of a picklist field
type PicklistValue struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// FieldDescriptor describes one field of the remote object type
type FieldDescriptor struct {
	Name           string          `json:"name"`
	Label          string          `json:"label"`
	Type           string          `json:"type"`
	Length         int             `json:"length"`
	PicklistValues []PicklistValue `json:"picklistValues,omitempty"`
}

// ObjectDescription is the result of describing the remote object type
type ObjectDescription struct {
	Name   string            `json:"name"`
	Fields []FieldDescriptor `json:"fields"`
}

// FieldNames returns the set of field names in the description
func (d *ObjectDescription) FieldNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		names[f.Name] = struct{}{}
	}
	return names
}

// FindField returns the descriptor for a field name, or nil
func (d *ObjectDescription) FindField(name string) *FieldDescriptor {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// CustomFieldDefinition is the metadata payload for creating a custom field
type CustomFieldDefinition struct {
	FullName string `json:"fullName"` // fully-qualified API name, e.g. "Q01__c"
	Label    string `json:"label"`
	Type     string `json:"type"`   // e.g. "Text"
	Length   int    `json:"length"` // for text fields
	Required bool   `json:"required"`
}

// RemoteRecordState is the verification snapshot of one remote record
type RemoteRecordState struct {
	ID           string    `json:"id"`
	Exists       bool      `json:"exists"`
	IsDeleted    bool      `json:"isDeleted"`
	LastModified time.Time `json:"lastModified"`
}

// CRMClient is the outbound contract to the remote CRM. All calls are
// blocking network operations; callers impose timeouts via ctx.
type CRMClient interface {
	// DescribeObject introspects the remote object type, including
	// picklist values with their active flag.
	DescribeObject(ctx context.Context, objectType string) (*ObjectDescription, error)

	// CreateCustomField provisions a custom field on the object type.
	// A duplicate field is reported as *errors.DuplicateFieldError so
	// the provisioner can classify it as a skip.
	CreateCustomField(ctx context.Context, objectType string, def CustomFieldDefinition) error

	// UpsertRecord writes a flat field map and returns the remote record ID
	UpsertRecord(ctx context.Context, objectType string, fields map[string]interface{}) (string, error)

	// GetRecordState queries existence, deletion flag and last-modified
	// timestamp for a remote record.
	GetRecordState(ctx context.Context, objectType, remoteID string) (*RemoteRecordState, error)
}
