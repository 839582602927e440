package intake

import (
	"fmt"

	"github.com/terra-clan/consult-portal/internal/models"
)

// AllStagesComplete is returned by NextIncompleteStage when nothing remains
const AllStagesComplete = 0

// RequiredConsents must all be acknowledged in stage 2
var RequiredConsents = []string{"data_use", "not_legal_advice", "privacy_terms"}

// stage describes one wizard step and its completion requirements
type stage struct {
	name    string
	missing func(d Data) []string
}

var stages = map[int]stage{
	1: {name: "Location & Role", missing: requireSet("location", "client_role")},
	2: {name: "Identity & Consent", missing: identityAndConsent},
	3: {name: "Immigration Goals", missing: requireSet("primary_goal", "target_program")},
	4: {name: "Personal Background", missing: requireSet("date_of_birth", "citizenship", "marital_status")},
	5: {name: "Dependents", missing: dependents},
	6: {name: "Education", missing: requireSet("highest_education", "education_country")},
	7: {name: "Work Experience", missing: workExperience},
	8: {name: "Language", missing: language},
	9: {name: "Funds", missing: funds},
	10: {name: "History", missing: history},
	11: {name: "Consultation Preferences", missing: requireSet("consultation_mode", "budget_range")},
	12: {name: "Timeline", missing: requireSet("urgency")},
}

// ValidStage reports whether n is a wizard stage number
func ValidStage(n int) bool {
	return n >= 1 && n <= models.TotalStages
}

// StageName returns the display name of a stage
func StageName(n int) string {
	return stages[n].name
}

// Missing lists the requirements a stage still lacks. It reads only the
// fields owned by that stage.
func Missing(n int, d Data) []string {
	st, ok := stages[n]
	if !ok {
		return []string{fmt.Sprintf("unknown stage %d", n)}
	}
	return st.missing(d)
}

// StageComplete is the completion predicate of stage n
func StageComplete(n int, d Data) bool {
	return len(Missing(n, d)) == 0
}

func requireSet(fields ...string) func(d Data) []string {
	return func(d Data) []string {
		var missing []string
		for _, f := range fields {
			if !d.IsSet(f) {
				missing = append(missing, f)
			}
		}
		return missing
	}
}

func identityAndConsent(d Data) []string {
	missing := requireSet("full_name", "email", "preferred_language", "timezone")(d)

	given := make(map[string]bool)
	for _, c := range d.Strings("consent_acknowledgement") {
		given[c] = true
	}
	for _, c := range RequiredConsents {
		if !given[c] {
			missing = append(missing, "consent_acknowledgement."+c)
		}
	}
	return missing
}

// requireWhenYes requires the governed fields unless the governing answer is
// an explicit false
func requireWhenYes(governing string, d Data, governed ...string) []string {
	if !d.answered(governing) {
		return []string{governing}
	}
	if v, ok := d.Bool(governing); ok && !v {
		return nil
	}
	return requireSet(governed...)(d)
}

func dependents(d Data) []string {
	missing := requireWhenYes("has_dependents", d)
	if len(missing) > 0 {
		return missing
	}
	if yes, _ := d.Bool("has_dependents"); yes {
		if n, ok := d.Number("dependents_count"); !ok || n < 1 {
			return []string{"dependents_count"}
		}
	}
	return nil
}

func workExperience(d Data) []string {
	missing := requireSet("occupation")(d)
	if !d.answered("years_experience") {
		missing = append(missing, "years_experience")
	}
	return missing
}

func language(d Data) []string {
	return requireWhenYes("language_test_taken", d, "language_test_type")
}

func funds(d Data) []string {
	missing := requireSet("proof_of_funds")(d)
	return append(missing, requireWhenYes("family_ties", d, "relationship_type")...)
}

func history(d Data) []string {
	var missing []string
	if !d.answered("prior_applications") {
		missing = append(missing, "prior_applications")
	}
	if len(d.Strings("inadmissibility_flags")) == 0 {
		missing = append(missing, "inadmissibility_flags")
	}
	return missing
}
