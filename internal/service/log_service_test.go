package service

import (
	"context"
	"testing"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogService_Query(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	late := epoch.Add(time.Minute)
	early := epoch.Add(-time.Minute)
	for _, raw := range []model.RawLog{
		{Level: "INFO", Message: "Checkout started", Timestamp: &late, Metadata: map[string]any{"service": "web"}},
		{Level: "ERROR", Message: "checkout failed", Tags: []string{"PAYMENT"}, Timestamp: &early, Metadata: map[string]any{"service": "api", "user": "u1"}},
		{Level: "INFO", Message: "user logged in", Timestamp: &early},
	} {
		_, err := e.ingest.Ingest(ctx, project.ID, raw, "")
		require.NoError(t, err)
	}

	messages := func(records []model.LogRecord) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.Message)
		}
		return out
	}

	tests := []struct {
		name   string
		filter model.LogFilter
		want   []string
	}{
		{name: "all ordered by timestamp then insertion", filter: model.LogFilter{}, want: []string{"checkout failed", "user logged in", "Checkout started"}},
		{name: "level ignoring case", filter: model.LogFilter{Level: "info"}, want: []string{"user logged in", "Checkout started"}},
		{name: "text ignoring case", filter: model.LogFilter{Text: "CHECKOUT"}, want: []string{"checkout failed", "Checkout started"}},
		{name: "tag", filter: model.LogFilter{Tag: "PAYMENT"}, want: []string{"checkout failed"}},
		{name: "service and user", filter: model.LogFilter{Service: "api", User: "u1"}, want: []string{"checkout failed"}},
		{name: "inclusive range", filter: model.LogFilter{From: &epoch, To: &late}, want: []string{"Checkout started"}},
		{name: "no match", filter: model.LogFilter{Level: "CRITICAL"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.ProjectID = &project.ID
			assert.Equal(t, tt.want, messages(collect(t, e, tt.filter)))
		})
	}
}

func TestLogService_QueryUnknownProject(t *testing.T) {
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	id := uuid.New()

	_, err := e.logs.Query(context.Background(), model.LogFilter{ProjectID: &id})
	assert.ErrorIs(t, err, model.ErrProjectNotFound)

	_, err = e.logs.DeleteWhere(context.Background(), model.DeleteFilter{ProjectID: &id})
	assert.ErrorIs(t, err, model.ErrProjectNotFound)
}

func TestLogService_DeleteWhereIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	for _, level := range []string{"DEBUG", "DEBUG", "ERROR"} {
		_, err := e.ingest.Ingest(ctx, project.ID, model.RawLog{Level: level}, "")
		require.NoError(t, err)
	}

	filter := model.DeleteFilter{ProjectID: &project.ID, Level: "debug"}
	n, err := e.logs.DeleteWhere(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = e.logs.DeleteWhere(ctx, filter)
	require.NoError(t, err)
	assert.Zero(t, n)

	remaining := collect(t, e, model.LogFilter{ProjectID: &project.ID})
	require.Len(t, remaining, 1)
	assert.Equal(t, "ERROR", remaining[0].Level)
}
