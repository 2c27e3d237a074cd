package lead

// Record is a flat lead record: field name -> scalar value.
// Values are strings, numbers, booleans or nil. A nil value is a meaningful
// instruction ("clear this field downstream"), not an absent field.
type Record map[string]interface{}

// Standard Lead fields. These always exist in the remote schema and are
// never subject to provisioning.
const (
	FieldLastName = "LastName"
	FieldCompany  = "Company"

	FieldCountryCode = "CountryCode"
	FieldCountry     = "Country"
)

// RequiredFields are mandatory on every transfer regardless of the
// active-field configuration.
var RequiredFields = []string{FieldLastName, FieldCompany}

// Has reports whether the field is present in the record, including
// fields present with a nil value.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// StringValue returns the field as a string, or "" if absent or not a string
func (r Record) StringValue(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
