package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidData is returned when a partial update carries mistyped fields
var ErrInvalidData = errors.New("invalid intake data")

// fieldTypes lists the JSON type of every known intake field. Unknown
// fields pass through untouched.
var fieldTypes = map[string]map[string]interface{}{
	"location":           {"type": []string{"string", "null"}},
	"client_role":        {"type": []string{"string", "null"}},
	"full_name":          {"type": []string{"string", "null"}, "maxLength": 200},
	"email":              {"type": []string{"string", "null"}, "maxLength": 320},
	"preferred_language": {"type": []string{"string", "null"}},
	"timezone":           {"type": []string{"string", "null"}},
	"consent_acknowledgement": {
		"type":  []string{"array", "null"},
		"items": map[string]interface{}{"type": "string"},
	},
	"primary_goal":        {"type": []string{"string", "null"}},
	"target_program":      {"type": []string{"string", "null"}},
	"date_of_birth":       {"type": []string{"string", "null"}},
	"citizenship":         {"type": []string{"string", "null"}},
	"marital_status":      {"type": []string{"string", "null"}},
	"has_dependents":      {"type": []string{"boolean", "null"}},
	"dependents_count":    {"type": []string{"integer", "null"}, "minimum": 0},
	"highest_education":   {"type": []string{"string", "null"}},
	"education_country":   {"type": []string{"string", "null"}},
	"occupation":          {"type": []string{"string", "null"}},
	"years_experience":    {"type": []string{"number", "null"}, "minimum": 0},
	"language_test_taken": {"type": []string{"boolean", "null"}},
	"language_test_type":  {"type": []string{"string", "null"}},
	"language_scores":     {"type": []string{"object", "null"}},
	"proof_of_funds":      {"type": []string{"string", "null"}},
	"family_ties":         {"type": []string{"boolean", "null"}},
	"relationship_type":   {"type": []string{"string", "null"}},
	"prior_applications":  {"type": []string{"boolean", "null"}},
	"application_outcomes": {
		"type": []string{"array", "null"},
	},
	"inadmissibility_flags": {
		"type":  []string{"array", "null"},
		"items": map[string]interface{}{"type": "string"},
	},
	"consultation_mode": {"type": []string{"string", "null"}},
	"budget_range":      {"type": []string{"string", "null"}},
	"urgency":           {"type": []string{"string", "null"}},
	"document_checklist": {
		"type":  []string{"array", "null"},
		"items": map[string]interface{}{"type": "string"},
	},
	"uploaded_files": {
		"type":  []string{"array", "null"},
		"items": map[string]interface{}{"type": "object"},
	},
}

// Validator checks partial stage updates against the known field types
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the intake field schema
func NewValidator() (*Validator, error) {
	properties := make(map[string]interface{}, len(fieldTypes))
	for field, def := range fieldTypes {
		properties[field] = def
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to compile intake schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate reports mistyped fields in a partial update for a stage
func (v *Validator) Validate(stage int, partial Data) error {
	if !ValidStage(stage) {
		return fmt.Errorf("%w: unknown stage %d", ErrInvalidData, stage)
	}

	doc := map[string]interface{}(partial)
	if doc == nil {
		doc = map[string]interface{}{}
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate stage %d data: %w", stage, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.Field()+": "+e.Description())
	}
	return fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(msgs, "; "))
}
