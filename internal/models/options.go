package models

// Choice is one selectable value of an option list
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// OptionList is an enumerated choice list consumed by stage forms
type OptionList struct {
	Name    string   `json:"name" yaml:"name"`
	Label   string   `json:"label" yaml:"label"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// Contains reports whether value is one of the list's choices
func (l *OptionList) Contains(value string) bool {
	if l == nil {
		return false
	}
	for _, c := range l.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
