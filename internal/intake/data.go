// Package intake holds the intake stage lifecycle: partial-update merging,
// conditional field clearing, per-stage completion predicates and the data
// store that mediates every stage read and write.
package intake

// Data is the schema-less field bag of an intake record. Values are what
// encoding/json produces: string, bool, float64, []interface{},
// map[string]interface{} or nil.
type Data map[string]interface{}

// clearRule resets governed fields when the governing field is no longer true
type clearRule struct {
	governing string
	resets    map[string]func() interface{}
}

func emptyList() interface{} { return []interface{}{} }
func null() interface{}      { return nil }

var clearRules = []clearRule{
	{governing: "prior_applications", resets: map[string]func() interface{}{"application_outcomes": emptyList}},
	{governing: "family_ties", resets: map[string]func() interface{}{"relationship_type": null}},
	{governing: "has_dependents", resets: map[string]func() interface{}{"dependents_count": null}},
	{governing: "language_test_taken", resets: map[string]func() interface{}{
		"language_test_type": null,
		"language_scores":    null,
	}},
}

// Merge returns a new map holding data with every key of partial overwritten.
// Keys absent from partial keep their exact values.
func Merge(data, partial Data) Data {
	out := make(Data, len(data)+len(partial))
	for k, v := range data {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// ApplyUpdate merges partial into data and, in the same result, clears the
// fields governed by any conditional field that partial moved away from true.
func ApplyUpdate(data, partial Data) Data {
	out := Merge(data, partial)
	for _, rule := range clearRules {
		if _, touched := partial[rule.governing]; !touched {
			continue
		}
		if isTrue(out[rule.governing]) {
			continue
		}
		for field, reset := range rule.resets {
			out[field] = reset()
		}
	}
	return out
}

// String returns a string field or "" when absent or of another type
func (d Data) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns a boolean field and whether it was answered at all
func (d Data) Bool(key string) (value bool, answered bool) {
	b, ok := d[key].(bool)
	return b, ok
}

// Strings returns a list field as strings, skipping non-string items
func (d Data) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Number returns a numeric field and whether it was present
func (d Data) Number(key string) (float64, bool) {
	switch v := d[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IsSet reports whether a field carries an answer: present, non-nil, not an
// empty string and not an empty list
func (d Data) IsSet(key string) bool {
	v, ok := d[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

// answered reports whether a field is present and non-nil, regardless of value
func (d Data) answered(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

func isTrue(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}
