package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

// countryCodeWidth is the expected width of a country code value
const countryCodeWidth = 2

// PicklistSnapshot is one cached view of the remote country picklist
type PicklistSnapshot struct {
	Codes       map[string]struct{} // valid codes (active picklist entries only)
	NameMap     map[string][]string // code -> display names associated with it
	codesByName map[string][]string // lowercased display name -> codes
	FetchedAt   time.Time
	Fallback    bool // true when this snapshot is the embedded fallback table
}

// CodesForName returns the codes associated with a display name
func (s *PicklistSnapshot) CodesForName(name string) []string {
	return s.codesByName[strings.ToLower(strings.TrimSpace(name))]
}

// PicklistService validates the constrained country fields of a record
// against the remote schema. Valid values are cached with a TTL; on any
// describe failure a hard-coded fallback table is substituted so the
// transfer pipeline never halts on this lookup.
type PicklistService struct {
	crm   ports.CRMClient
	ttl   time.Duration
	clock func() time.Time

	mu    sync.RWMutex
	cache map[string]*PicklistSnapshot // key: object type
}

// NewPicklistService creates a new PicklistService with the given TTL
func NewPicklistService(crm ports.CRMClient, ttl time.Duration) *PicklistService {
	return &PicklistService{
		crm:   crm,
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]*PicklistSnapshot),
	}
}

// SetClock overrides the cache clock (tests)
func (ps *PicklistService) SetClock(clock func() time.Time) {
	ps.clock = clock
}

// GetValidValues returns the valid country codes and the code->name map
// for the object type, refreshing the cache when stale. Never returns an
// error: a failed refresh degrades to the embedded fallback table.
func (ps *PicklistService) GetValidValues(ctx context.Context, objectType string) *PicklistSnapshot {
	// Fast path: fresh cache entry
	ps.mu.RLock()
	cached, ok := ps.cache[objectType]
	ps.mu.RUnlock()
	if ok && ps.clock().Sub(cached.FetchedAt) < ps.ttl {
		return cached
	}

	snapshot, err := ps.describePicklist(ctx, objectType)
	if err != nil {
		log.Printf("⚠️  Country picklist describe failed for %s, using fallback table: %v", objectType, err)
		// The fallback is not cached so the next call retries the remote
		return fallbackSnapshot(ps.clock())
	}

	ps.mu.Lock()
	ps.cache[objectType] = snapshot
	ps.mu.Unlock()

	log.Printf("🔄 Country picklist cache refreshed for %s: %d codes", objectType, len(snapshot.Codes))
	return snapshot
}

// describePicklist queries the remote schema for the code field and its
// sibling display-name field, keeping active values only.
func (ps *PicklistService) describePicklist(ctx context.Context, objectType string) (*PicklistSnapshot, error) {
	desc, err := ps.crm.DescribeObject(ctx, objectType)
	if err != nil {
		return nil, err
	}

	snapshot := &PicklistSnapshot{
		Codes:       make(map[string]struct{}),
		NameMap:     make(map[string][]string),
		codesByName: make(map[string][]string),
		FetchedAt:   ps.clock(),
	}

	codeField := desc.FindField(lead.FieldCountryCode)
	if codeField != nil {
		for _, pv := range codeField.PicklistValues {
			if !pv.Active {
				// Inactive values are treated as though absent
				continue
			}
			code := strings.ToUpper(pv.Value)
			snapshot.Codes[code] = struct{}{}
			if pv.Label != "" {
				associate(snapshot, code, pv.Label)
			}
		}
	}

	// The sibling display-name picklist carries the free-text country
	// names; pair them to codes by containment heuristics.
	nameField := desc.FindField(lead.FieldCountry)
	if nameField != nil {
		for _, pv := range nameField.PicklistValues {
			if !pv.Active {
				continue
			}
			name := pv.Value
			if name == "" {
				name = pv.Label
			}
			for code := range snapshot.Codes {
				if nameMatchesCode(name, code, snapshot.NameMap[code]) {
					associate(snapshot, code, name)
				}
			}
		}
	}

	return snapshot, nil
}

// associate links a display name to a code in both directions
func associate(s *PicklistSnapshot, code, name string) {
	for _, existing := range s.NameMap[code] {
		if strings.EqualFold(existing, name) {
			return
		}
	}
	s.NameMap[code] = append(s.NameMap[code], name)
	key := strings.ToLower(strings.TrimSpace(name))
	s.codesByName[key] = append(s.codesByName[key], code)
}

// nameMatchesCode applies the containment heuristic between a sibling
// display name and a code (or the labels already known for that code).
func nameMatchesCode(name, code string, knownLabels []string) bool {
	lowerName := strings.ToLower(name)
	for _, label := range knownLabels {
		lowerLabel := strings.ToLower(label)
		if lowerName == lowerLabel ||
			strings.Contains(lowerName, lowerLabel) ||
			strings.Contains(lowerLabel, lowerName) {
			return true
		}
	}
	return false
}

// Validate repairs or rejects the constrained country fields of a record
// in place:
//   - the code is uppercased and truncated to the expected width, and
//     dropped if not in the valid set
//   - the free-text name is stripped of non-alphabetic noise
//   - if both survive and the name's mapped codes do not include the
//     code, the code is dropped: name and code mismatches always resolve
//     in favor of the name
func (ps *PicklistService) Validate(ctx context.Context, objectType string, record lead.Record) {
	snapshot := ps.GetValidValues(ctx, objectType)

	if raw, ok := record[lead.FieldCountryCode]; ok && raw != nil {
		code, isString := raw.(string)
		if !isString {
			log.Printf("⚠️  Dropping non-string country code %v", raw)
			delete(record, lead.FieldCountryCode)
		} else {
			code = strings.ToUpper(strings.TrimSpace(code))
			if len(code) > countryCodeWidth {
				code = code[:countryCodeWidth]
			}
			if _, valid := snapshot.Codes[code]; !valid {
				log.Printf("⚠️  Dropping unknown country code '%s'", code)
				delete(record, lead.FieldCountryCode)
			} else {
				record[lead.FieldCountryCode] = code
			}
		}
	}

	if raw, ok := record[lead.FieldCountry]; ok && raw != nil {
		if name, isString := raw.(string); isString {
			cleaned := stripNonAlphabetic(name)
			if cleaned != name {
				record[lead.FieldCountry] = cleaned
			}
		}
	}

	// Mismatch resolution: the free-text name wins, the code is discarded
	code := record.StringValue(lead.FieldCountryCode)
	name := record.StringValue(lead.FieldCountry)
	if code != "" && name != "" {
		mapped := snapshot.CodesForName(name)
		if len(mapped) > 0 && !containsString(mapped, code) {
			log.Printf("⚠️  Country code '%s' conflicts with country name '%s', dropping code", code, name)
			delete(record, lead.FieldCountryCode)
		}
	}
}

// stripNonAlphabetic keeps letters and single spaces only
func stripNonAlphabetic(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && b.Len() > 0 && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fallbackSnapshot is the embedded table of common codes used when the
// remote describe is unavailable.
func fallbackSnapshot(now time.Time) *PicklistSnapshot {
	snapshot := &PicklistSnapshot{
		Codes:       make(map[string]struct{}),
		NameMap:     make(map[string][]string),
		codesByName: make(map[string][]string),
		FetchedAt:   now,
		Fallback:    true,
	}
	for code, name := range fallbackCountries {
		snapshot.Codes[code] = struct{}{}
		associate(snapshot, code, name)
	}
	return snapshot
}

var fallbackCountries = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"MX": "Mexico",
	"BR": "Brazil",
	"GB": "United Kingdom",
	"IE": "Ireland",
	"FR": "France",
	"DE": "Germany",
	"AT": "Austria",
	"CH": "Switzerland",
	"IT": "Italy",
	"ES": "Spain",
	"PT": "Portugal",
	"NL": "Netherlands",
	"BE": "Belgium",
	"DK": "Denmark",
	"SE": "Sweden",
	"NO": "Norway",
	"FI": "Finland",
	"PL": "Poland",
	"CZ": "Czechia",
	"JP": "Japan",
	"CN": "China",
	"IN": "India",
	"AU": "Australia",
	"NZ": "New Zealand",
}
