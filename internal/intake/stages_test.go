package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeIdentity() Data {
	return Data{
		"full_name":               "Amara Singh",
		"email":                   "amara@example.com",
		"preferred_language":      "en",
		"timezone":                "America/Toronto",
		"consent_acknowledgement": []interface{}{"data_use", "not_legal_advice", "privacy_terms"},
	}
}

func TestStage1(t *testing.T) {
	assert.False(t, StageComplete(1, Data{}))
	assert.False(t, StageComplete(1, Data{"location": "inside_canada"}))
	assert.False(t, StageComplete(1, Data{"client_role": "applicant"}))
	assert.True(t, StageComplete(1, Data{"location": "inside_canada", "client_role": "applicant"}))
}

func TestStage2EachFieldRequired(t *testing.T) {
	assert.True(t, StageComplete(2, completeIdentity()))

	for _, field := range []string{"full_name", "email", "preferred_language", "timezone"} {
		t.Run("missing "+field, func(t *testing.T) {
			d := completeIdentity()
			delete(d, field)
			assert.False(t, StageComplete(2, d))
			assert.Contains(t, Missing(2, d), field)

			d[field] = ""
			assert.False(t, StageComplete(2, d))
		})
	}
}

func TestStage2EachConsentRequired(t *testing.T) {
	for _, consent := range RequiredConsents {
		t.Run("missing "+consent, func(t *testing.T) {
			d := completeIdentity()
			var given []interface{}
			for _, c := range RequiredConsents {
				if c != consent {
					given = append(given, c)
				}
			}
			d["consent_acknowledgement"] = given

			assert.False(t, StageComplete(2, d))
			assert.Equal(t, []string{"consent_acknowledgement." + consent}, Missing(2, d))
		})
	}
}

func TestStage2ExtraConsentsAllowed(t *testing.T) {
	d := completeIdentity()
	d["consent_acknowledgement"] = []interface{}{"marketing", "privacy_terms", "data_use", "not_legal_advice"}
	assert.True(t, StageComplete(2, d))
}

func TestStage9(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want bool
	}{
		{"nothing", Data{}, false},
		{"funds only", Data{"proof_of_funds": "bank_statement"}, false},
		{"no ties", Data{"proof_of_funds": "bank_statement", "family_ties": false}, true},
		{"ties without relationship", Data{"proof_of_funds": "bank_statement", "family_ties": true}, false},
		{"ties with relationship", Data{"proof_of_funds": "bank_statement", "family_ties": true, "relationship_type": "parent"}, true},
		{"ties null", Data{"proof_of_funds": "bank_statement", "family_ties": nil}, false},
		{"no funds", Data{"family_ties": false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StageComplete(9, tt.data))
		})
	}
}

func TestStage10(t *testing.T) {
	assert.False(t, StageComplete(10, Data{"prior_applications": false}))
	assert.False(t, StageComplete(10, Data{"prior_applications": false, "inadmissibility_flags": []interface{}{}}))
	assert.False(t, StageComplete(10, Data{"inadmissibility_flags": []interface{}{"none"}}))
	assert.True(t, StageComplete(10, Data{"prior_applications": false, "inadmissibility_flags": []interface{}{"none"}}))
}

func TestStage12OnlyNeedsUrgency(t *testing.T) {
	assert.False(t, StageComplete(12, Data{"uploaded_files": []interface{}{map[string]interface{}{"id": "1"}}}))
	assert.True(t, StageComplete(12, Data{"urgency": "within_3_months"}))
}

func TestConditionalStages(t *testing.T) {
	assert.True(t, StageComplete(5, Data{"has_dependents": false}))
	assert.False(t, StageComplete(5, Data{"has_dependents": true}))
	assert.False(t, StageComplete(5, Data{"has_dependents": true, "dependents_count": float64(0)}))
	assert.True(t, StageComplete(5, Data{"has_dependents": true, "dependents_count": float64(2)}))

	assert.True(t, StageComplete(8, Data{"language_test_taken": false}))
	assert.False(t, StageComplete(8, Data{"language_test_taken": true}))
	assert.True(t, StageComplete(8, Data{"language_test_taken": true, "language_test_type": "celpip"}))

	assert.False(t, StageComplete(7, Data{"occupation": "nurse"}))
	assert.True(t, StageComplete(7, Data{"occupation": "nurse", "years_experience": float64(0)}))
}

func TestStagesIgnoreOtherStagesFields(t *testing.T) {
	d := completeIdentity()
	d["location"] = "inside_canada"
	d["client_role"] = "applicant"

	assert.True(t, StageComplete(1, d))
	assert.True(t, StageComplete(2, d))
	assert.False(t, StageComplete(3, d))
}

func TestUnknownStage(t *testing.T) {
	assert.False(t, StageComplete(0, Data{}))
	assert.False(t, StageComplete(13, Data{}))
	assert.Equal(t, "", StageName(13))
	assert.Equal(t, "Timeline", StageName(12))
}
