package types

// FieldMap holds the field values of one content item, keyed by field id.
// Values come from JSON bodies (string, float64, bool, nested values) or from
// multipart form values (always string); field-type checks happen at the
// validation boundary, not here.
type FieldMap map[string]interface{}

// FieldErrors maps a field id to a human-readable validation message.
type FieldErrors map[string]string

// Clone returns a shallow copy of the map.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge overlays incoming on top of m and returns the result as a new map.
// Keys present in incoming win, including explicit nulls and empty strings;
// keys absent from incoming are preserved.
func (m FieldMap) Merge(incoming FieldMap) FieldMap {
	out := m.Clone()
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// String returns the value for key if it is a string, else "".
func (m FieldMap) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
