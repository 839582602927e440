package models

import "time"

// TotalStages is the number of intake wizard stages
const TotalStages = 12

// IntakeRecord is the authenticated user's intake as returned by the backend
type IntakeRecord struct {
	ID              string                 `json:"id"`
	Data            map[string]interface{} `json:"data"`
	CompletedStages []int                  `json:"completed_stages"`
	CreatedAt       *time.Time             `json:"created_at,omitempty"`
	UpdatedAt       *time.Time             `json:"updated_at,omitempty"`
}

// Clone returns a deep enough copy for safe sharing: the data map and the
// completed stage slice are copied, nested values are shared.
func (r *IntakeRecord) Clone() *IntakeRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Data = make(map[string]interface{}, len(r.Data))
	for k, v := range r.Data {
		out.Data[k] = v
	}
	out.CompletedStages = append([]int(nil), r.CompletedStages...)
	return &out
}

// UploadedDocument describes a stored intake document
type UploadedDocument struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `json:"file_type"`
	UploadedAt time.Time `json:"uploaded_at"`
	FilePath   string    `json:"file_path"`
	Stage      int       `json:"stage"`
}

// StageDraft holds unsaved form state for one stage, kept apart from the
// last saved intake copy
type StageDraft struct {
	UserID    string                 `json:"user_id"`
	Stage     int                    `json:"stage"`
	Data      map[string]interface{} `json:"data"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// StageStatus is a per-stage view used by progress responses
type StageStatus struct {
	Stage    int      `json:"stage"`
	Name     string   `json:"name"`
	Complete bool     `json:"complete"`
	Ready    bool     `json:"ready"`
	Missing  []string `json:"missing,omitempty"`
}

// IntakeProgress summarizes an intake for the wizard shell
type IntakeProgress struct {
	Intake               *IntakeRecord `json:"intake"`
	CompletionPercentage float64       `json:"completion_percentage"`
	NextIncompleteStage  int           `json:"next_incomplete_stage"`
	Stages               []StageStatus `json:"stages"`
}
