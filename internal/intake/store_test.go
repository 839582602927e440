package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// fakeBackend keeps an intake record in memory and records calls
type fakeBackend struct {
	record      *models.IntakeRecord
	getErr      error
	updateErr   error
	completeErr error

	updates   []map[string]interface{}
	completes []int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{record: &models.IntakeRecord{ID: "intake-1", Data: map[string]interface{}{}}}
}

func (f *fakeBackend) GetIntake(ctx context.Context) (*models.IntakeRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record.Clone(), nil
}

func (f *fakeBackend) UpdateIntakeStage(ctx context.Context, stage int, data map[string]interface{}) (*models.IntakeRecord, error) {
	f.updates = append(f.updates, data)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.record.Data = data
	return f.record.Clone(), nil
}

func (f *fakeBackend) CompleteIntakeStage(ctx context.Context, stage int) (*models.IntakeRecord, error) {
	f.completes = append(f.completes, stage)
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.record.CompletedStages = append(f.record.CompletedStages, stage)
	return f.record.Clone(), nil
}

func TestStoreEndToEndStage1(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := NewStore(backend)

	require.NoError(t, store.Load(ctx))
	assert.Empty(t, store.CompletedStages())
	assert.Equal(t, 1, store.NextIncompleteStage())

	require.NoError(t, store.UpdateStage(ctx, 1, Data{"location": "inside_canada", "client_role": "applicant"}))
	assert.True(t, StageComplete(1, store.Data()))
	assert.False(t, store.IsStageComplete(1))

	require.NoError(t, store.CompleteStage(ctx, 1))

	assert.True(t, store.IsStageComplete(1))
	assert.Equal(t, []int{1}, store.CompletedStages())
	assert.InDelta(t, 8.333, store.CompletionPercentage(), 0.001)
	assert.Equal(t, 2, store.NextIncompleteStage())
	assert.Empty(t, store.Err())
}

func TestStoreCompleteStageGateSkipsBackend(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := NewStore(backend)
	require.NoError(t, store.Load(ctx))

	err := store.CompleteStage(ctx, 2)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStageIncomplete))
	var incomplete *IncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Contains(t, incomplete.Missing, "full_name")
	assert.Empty(t, backend.completes)
	assert.NotEmpty(t, store.Err())
}

func TestStoreLoadFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.record.Data["location"] = "inside_canada"
	backend.record.CompletedStages = []int{1}
	store := NewStore(backend)
	require.NoError(t, store.Load(ctx))

	backend.getErr = fmt.Errorf("wrapped: %w", client.ErrTransport)

	err := store.Load(ctx)

	require.Error(t, err)
	assert.Equal(t, "inside_canada", store.Data()["location"])
	assert.True(t, store.IsStageComplete(1))
	assert.NotEmpty(t, store.Err())
}

func TestStoreUpdateFailureKeepsSavedCopy(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := NewStore(backend)
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.UpdateStage(ctx, 1, Data{"location": "inside_canada"}))

	backend.updateErr = errors.New("boom")
	err := store.UpdateStage(ctx, 1, Data{"location": "outside_canada"})

	require.Error(t, err)
	assert.Equal(t, "inside_canada", store.Data()["location"])
	assert.Equal(t, "boom", store.Err())
}

func TestStoreUpdateSendsMergedAndClearedData(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.record.Data = map[string]interface{}{
		"proof_of_funds":    "bank_statement",
		"family_ties":       true,
		"relationship_type": "parent",
	}
	store := NewStore(backend)
	require.NoError(t, store.Load(ctx))

	require.NoError(t, store.UpdateStage(ctx, 9, Data{"family_ties": false}))

	require.Len(t, backend.updates, 1)
	sent := backend.updates[0]
	assert.Equal(t, "bank_statement", sent["proof_of_funds"])
	assert.Equal(t, false, sent["family_ties"])
	assert.Nil(t, sent["relationship_type"])
	assert.Contains(t, sent, "relationship_type")
}

func TestStoreRequiresLoad(t *testing.T) {
	store := NewStore(newFakeBackend())

	assert.ErrorIs(t, store.UpdateStage(context.Background(), 1, Data{}), ErrNotLoaded)
	assert.ErrorIs(t, store.CompleteStage(context.Background(), 1), ErrNotLoaded)
	assert.ErrorIs(t, store.UpdateStage(context.Background(), 13, Data{}), ErrUnknownStage)
}

func TestCompletionPercentageNormalized(t *testing.T) {
	backend := newFakeBackend()
	backend.record.CompletedStages = []int{1, 1, 2, 13, 0, -4}
	store := NewStore(backend)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, []int{1, 2}, store.CompletedStages())
	assert.InDelta(t, 100*2.0/12.0, store.CompletionPercentage(), 1e-9)
}

func TestCompletionPercentageBounds(t *testing.T) {
	for n := 0; n <= models.TotalStages; n++ {
		backend := newFakeBackend()
		for i := 1; i <= n; i++ {
			backend.record.CompletedStages = append(backend.record.CompletedStages, i)
		}
		store := NewStore(backend)
		require.NoError(t, store.Load(context.Background()))

		pct := store.CompletionPercentage()
		assert.InDelta(t, 100*float64(n)/12, pct, 1e-9)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
	}
}

func TestNextIncompleteStageAllComplete(t *testing.T) {
	backend := newFakeBackend()
	backend.record.CompletedStages = []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	store := NewStore(backend)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, AllStagesComplete, store.NextIncompleteStage())
	assert.Equal(t, 100.0, store.CompletionPercentage())
}

func TestNextIncompleteStageSkipsGaps(t *testing.T) {
	backend := newFakeBackend()
	backend.record.CompletedStages = []int{1, 2, 4}
	store := NewStore(backend)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, 3, store.NextIncompleteStage())
}

func TestProgress(t *testing.T) {
	backend := newFakeBackend()
	backend.record.Data = map[string]interface{}{"location": "inside_canada", "client_role": "applicant"}
	store := NewStore(backend)
	require.NoError(t, store.Load(context.Background()))

	p := store.Progress()

	require.Len(t, p.Stages, models.TotalStages)
	assert.True(t, p.Stages[0].Ready)
	assert.False(t, p.Stages[0].Complete)
	assert.False(t, p.Stages[1].Ready)
	assert.Equal(t, 1, p.NextIncompleteStage)
	assert.Equal(t, "intake-1", p.Intake.ID)
}
