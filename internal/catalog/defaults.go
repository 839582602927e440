package catalog

import "github.com/terra-clan/consult-portal/internal/models"

func list(name, label string, pairs ...string) *models.OptionList {
	l := &models.OptionList{Name: name, Label: label}
	for i := 0; i+1 < len(pairs); i += 2 {
		l.Choices = append(l.Choices, models.Choice{Value: pairs[i], Label: pairs[i+1]})
	}
	return l
}

// defaultLists are compiled-in choice lists; YAML files may replace any of them
func defaultLists() []*models.OptionList {
	return []*models.OptionList{
		list("location", "Where are you now?",
			"inside_canada", "Inside Canada",
			"outside_canada", "Outside Canada",
		),
		list("client_role", "Your role",
			"applicant", "I am the applicant",
			"sponsor", "I am sponsoring someone",
			"representative", "I represent an applicant",
			"employer", "I am an employer",
		),
		list("consent_acknowledgement", "Consents",
			"data_use", "I agree my data is used to match me with a consultant",
			"not_legal_advice", "I understand this intake is not legal advice",
			"privacy_terms", "I accept the privacy terms",
			"marketing", "Send me updates and offers",
		),
		list("preferred_language", "Preferred language",
			"en", "English",
			"fr", "French",
			"es", "Spanish",
			"pa", "Punjabi",
			"hi", "Hindi",
			"zh", "Mandarin",
			"ar", "Arabic",
			"tl", "Tagalog",
		),
		list("primary_goal", "Primary goal",
			"study", "Study",
			"work", "Work",
			"permanent_residence", "Permanent residence",
			"family_sponsorship", "Family sponsorship",
			"visit", "Visit",
			"citizenship", "Citizenship",
			"refugee_protection", "Refugee protection",
		),
		list("marital_status", "Marital status",
			"single", "Single",
			"married", "Married",
			"common_law", "Common-law",
			"separated", "Separated",
			"divorced", "Divorced",
			"widowed", "Widowed",
		),
		list("highest_education", "Highest education",
			"secondary", "Secondary school",
			"diploma", "One or two year diploma",
			"bachelors", "Bachelor's degree",
			"masters", "Master's degree",
			"doctorate", "Doctorate",
		),
		list("language_test_type", "Language test",
			"ielts", "IELTS General",
			"celpip", "CELPIP General",
			"pte", "PTE Core",
			"tef", "TEF Canada",
			"tcf", "TCF Canada",
		),
		list("proof_of_funds", "Proof of funds",
			"bank_statement", "Bank statements",
			"gic", "Guaranteed Investment Certificate",
			"sponsor_letter", "Sponsor letter",
			"scholarship", "Scholarship or funding letter",
			"none", "Not available yet",
		),
		list("relationship_type", "Relationship to family in Canada",
			"parent", "Parent",
			"sibling", "Sibling",
			"child", "Child",
			"spouse", "Spouse or partner",
			"grandparent", "Grandparent",
			"aunt_uncle", "Aunt or uncle",
			"other", "Other relative",
		),
		list("inadmissibility_flags", "Admissibility",
			"none", "None of these apply",
			"criminal_record", "Criminal record",
			"medical_condition", "Serious medical condition",
			"previous_refusal", "Previous refusal",
			"overstay", "Previous overstay",
			"misrepresentation", "Previous misrepresentation finding",
		),
		list("application_outcomes", "Previous application outcomes",
			"approved", "Approved",
			"refused", "Refused",
			"withdrawn", "Withdrawn",
			"pending", "Still pending",
		),
		list("consultation_mode", "Consultation mode",
			"video", "Video call",
			"phone", "Phone call",
			"in_person", "In person",
		),
		list("budget_range", "Budget",
			"under_500", "Under $500",
			"500_1500", "$500 - $1,500",
			"1500_5000", "$1,500 - $5,000",
			"over_5000", "Over $5,000",
		),
		list("urgency", "How soon do you need help?",
			"immediate", "Immediately (within 2 weeks)",
			"within_3_months", "Within 3 months",
			"within_6_months", "Within 6 months",
			"exploring", "Just exploring",
		),
		list("document_types", "Document types",
			"passport", "Passport",
			"birth_certificate", "Birth certificate",
			"marriage_certificate", "Marriage certificate",
			"education_credentials", "Education credentials",
			"language_results", "Language test results",
			"employment_letters", "Employment reference letters",
			"bank_statements", "Bank statements",
			"police_certificate", "Police certificate",
		),
	}
}
