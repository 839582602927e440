package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// Common errors
var (
	ErrNotLoaded       = errors.New("intake not loaded")
	ErrUnknownStage    = errors.New("unknown intake stage")
	ErrStageIncomplete = errors.New("stage requirements not met")
)

// IncompleteError lists the requirements that blocked a stage completion
type IncompleteError struct {
	Stage   int
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("stage %d incomplete: missing %s", e.Stage, strings.Join(e.Missing, ", "))
}

// Unwrap lets callers match ErrStageIncomplete
func (e *IncompleteError) Unwrap() error {
	return ErrStageIncomplete
}

// Backend is the part of the marketplace API the store needs
type Backend interface {
	GetIntake(ctx context.Context) (*models.IntakeRecord, error)
	UpdateIntakeStage(ctx context.Context, stage int, data map[string]interface{}) (*models.IntakeRecord, error)
	CompleteIntakeStage(ctx context.Context, stage int) (*models.IntakeRecord, error)
}

// Store is the single source of truth for one user's intake record. It only
// ever holds the last state confirmed by the backend.
type Store struct {
	backend Backend

	mu     sync.RWMutex
	record *models.IntakeRecord
	done   map[int]bool
	err    string
}

// NewStore creates a store bound to a backend
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		done:    make(map[int]bool),
	}
}

// Load fetches the current intake record. On failure the previous state is
// kept and the error message is recorded.
func (s *Store) Load(ctx context.Context) error {
	rec, err := s.backend.GetIntake(ctx)
	if err != nil {
		s.fail("failed to load intake", err)
		return fmt.Errorf("failed to load intake: %w", err)
	}

	s.replace(rec)
	return nil
}

// UpdateStage applies a partial update to the saved data, sends the result
// to the backend and adopts the server's response
func (s *Store) UpdateStage(ctx context.Context, stage int, partial Data) error {
	if !ValidStage(stage) {
		return fmt.Errorf("%w: %d", ErrUnknownStage, stage)
	}

	s.mu.RLock()
	if s.record == nil {
		s.mu.RUnlock()
		return ErrNotLoaded
	}
	next := ApplyUpdate(Data(s.record.Data), partial)
	s.mu.RUnlock()

	rec, err := s.backend.UpdateIntakeStage(ctx, stage, next)
	if err != nil {
		s.fail("failed to save intake stage", err, "stage", stage)
		return fmt.Errorf("failed to save stage %d: %w", stage, err)
	}

	s.replace(rec)
	return nil
}

// CompleteStage marks a stage complete. The stage predicate runs first
// against the saved data so a request bound to be rejected is never sent.
func (s *Store) CompleteStage(ctx context.Context, stage int) error {
	if !ValidStage(stage) {
		return fmt.Errorf("%w: %d", ErrUnknownStage, stage)
	}

	s.mu.RLock()
	if s.record == nil {
		s.mu.RUnlock()
		return ErrNotLoaded
	}
	missing := Missing(stage, Data(s.record.Data))
	s.mu.RUnlock()

	if len(missing) > 0 {
		err := &IncompleteError{Stage: stage, Missing: missing}
		s.setErr(err.Error())
		return err
	}

	rec, err := s.backend.CompleteIntakeStage(ctx, stage)
	if err != nil {
		s.fail("failed to complete intake stage", err, "stage", stage)
		return fmt.Errorf("failed to complete stage %d: %w", stage, err)
	}

	s.replace(rec)
	return nil
}

// Record returns a copy of the last saved record, nil before the first load
func (s *Store) Record() *models.IntakeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// Data returns a copy of the last saved data
func (s *Store) Data() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return Data{}
	}
	return Merge(Data(s.record.Data), nil)
}

// Err returns the last error message, "" after a successful call
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// IsStageComplete reports whether the backend has recorded a stage complete
func (s *Store) IsStageComplete(stage int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done[stage]
}

// CompletedStages returns the completed stage numbers in ascending order
func (s *Store) CompletedStages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.done))
	for n := range s.done {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// CompletionPercentage is 100 * completed / total stages
func (s *Store) CompletionPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float64(len(s.done)) / float64(models.TotalStages) * 100
}

// NextIncompleteStage returns the lowest stage not completed, or
// AllStagesComplete
func (s *Store) NextIncompleteStage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for n := 1; n <= models.TotalStages; n++ {
		if !s.done[n] {
			return n
		}
	}
	return AllStagesComplete
}

// Progress builds the wizard summary of the saved record
func (s *Store) Progress() *models.IntakeProgress {
	rec := s.Record()
	data := s.Data()

	progress := &models.IntakeProgress{
		Intake:               rec,
		CompletionPercentage: s.CompletionPercentage(),
		NextIncompleteStage:  s.NextIncompleteStage(),
		Stages:               make([]models.StageStatus, 0, models.TotalStages),
	}

	for n := 1; n <= models.TotalStages; n++ {
		missing := Missing(n, data)
		progress.Stages = append(progress.Stages, models.StageStatus{
			Stage:    n,
			Name:     StageName(n),
			Complete: s.IsStageComplete(n),
			Ready:    len(missing) == 0,
			Missing:  missing,
		})
	}

	return progress
}

// replace adopts a backend record, normalizing the completed stage set
func (s *Store) replace(rec *models.IntakeRecord) {
	if rec == nil {
		rec = &models.IntakeRecord{}
	}
	if rec.Data == nil {
		rec.Data = make(map[string]interface{})
	}

	done := make(map[int]bool, len(rec.CompletedStages))
	stagesOut := make([]int, 0, len(rec.CompletedStages))
	for _, n := range rec.CompletedStages {
		if !ValidStage(n) || done[n] {
			continue
		}
		done[n] = true
		stagesOut = append(stagesOut, n)
	}
	sort.Ints(stagesOut)
	rec.CompletedStages = stagesOut

	s.mu.Lock()
	s.record = rec
	s.done = done
	s.err = ""
	s.mu.Unlock()
}

func (s *Store) fail(msg string, err error, attrs ...any) {
	slog.Warn(msg, append([]any{"error", err}, attrs...)...)
	s.setErr(client.Message(err))
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}
