package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeQuery = `SELECT to_regclass\('public.intake_drafts'\) IS NOT NULL`

func TestPostgresChecker(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "migrated",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(probeQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
		},
		{
			name: "not migrated",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(probeQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: "not migrated",
		},
		{
			name: "unreachable",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(probeQuery).WillReturnError(errors.New("connection refused"))
			},
			wantErr: "postgres unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			checker := NewPostgresCheckerFromDB(db)
			err = checker.HealthCheck(context.Background())

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.Equal(t, "postgres", checker.Type())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewRedisChecker(client)
	assert.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))
}

type fakePinger struct{ err error }

func (f fakePinger) Health(context.Context) error { return f.err }

type slowChecker struct{ BaseChecker }

func (slowChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRegistry_HealthCheckAll(t *testing.T) {
	registry := NewRegistry(50 * time.Millisecond)
	registry.Register("backend", NewBackendChecker(fakePinger{}))
	registry.Register("broken", NewBackendChecker(fakePinger{err: errors.New("503")}))
	registry.Register("slow", &slowChecker{})

	results := registry.HealthCheckAll(context.Background())

	assert.Equal(t, []string{"backend", "broken", "slow"}, registry.List())
	assert.NoError(t, results["backend"])
	assert.Error(t, results["broken"])
	assert.ErrorIs(t, results["slow"], context.DeadlineExceeded)
	assert.False(t, Healthy(results))
	assert.True(t, Healthy(map[string]error{"backend": nil}))
}
