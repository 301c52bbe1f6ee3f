package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingService_Register(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	svc, err := e.pings.Register(ctx, project.ID, model.PingDefinition{
		Name: "api",
		URL:  "https://api.example.com/health",
		Tags: []string{"error", "Payment"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ERROR", "PAYMENT"}, svc.Tags, "tags are stored as the project declares them")
	assert.Equal(t, model.DefaultPingInterval, svc.Interval)
	assert.Equal(t, model.PingStatusUnknown, svc.Status)
	assert.True(t, e.scheduler.Registered(svc.ID))

	services, err := e.pings.List(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, svc.ID, services[0].ID)
}

func TestPingService_RegisterRejectsInvalidDefinitions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	tests := []struct {
		name    string
		def     model.PingDefinition
		wantErr error
	}{
		{name: "missing name", def: model.PingDefinition{URL: "https://a.example.com"}, wantErr: model.ErrInvalidPingDefinition},
		{name: "bad url", def: model.PingDefinition{Name: "a", URL: "not a url"}, wantErr: model.ErrInvalidPingDefinition},
		{name: "interval too short", def: model.PingDefinition{Name: "a", URL: "https://a.example.com", Interval: 2}, wantErr: model.ErrInvalidPingDefinition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.pings.Register(ctx, project.ID, tt.def)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: "a", URL: "https://a.example.com", Tags: []string{"SHIPPING"}})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "SHIPPING", verr.Tag)

	_, err = e.pings.Register(ctx, uuid.New(), model.PingDefinition{Name: "a", URL: "https://a.example.com"})
	assert.ErrorIs(t, err, model.ErrProjectNotFound)

	assert.Zero(t, e.scheduler.Len())
}

func TestPingService_Update(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))
	other := e.createProject(t, model.Project{Name: "other"})

	svc, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com", Interval: 30})
	require.NoError(t, err)

	updated, err := e.pings.Update(ctx, project.ID, svc.ID, model.PingDefinition{Name: "api", URL: "https://api2.example.com", Interval: 10})
	require.NoError(t, err)
	assert.Equal(t, "https://api2.example.com", updated.URL)
	assert.Equal(t, 10, updated.Interval)
	assert.True(t, e.scheduler.Registered(svc.ID))

	_, err = e.pings.Update(ctx, other.ID, svc.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com"})
	assert.ErrorIs(t, err, model.ErrPingServiceNotFound)
}

func TestPingService_Delete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	svc, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com"})
	require.NoError(t, err)

	require.NoError(t, e.pings.Delete(ctx, project.ID, svc.ID))
	assert.False(t, e.scheduler.Registered(svc.ID))

	_, err = e.store.Pings().Get(ctx, svc.ID)
	assert.ErrorIs(t, err, model.ErrPingServiceNotFound)

	err = e.pings.Delete(ctx, project.ID, svc.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPingService_DeleteFailureKeepsPolling(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	svc, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com"})
	require.NoError(t, err)

	e.pings.pings = &failingPings{PingRepository: e.store.Pings(), err: model.ErrStoreUnavailable}
	err = e.pings.Delete(ctx, project.ID, svc.ID)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.True(t, e.scheduler.Registered(svc.ID))
}

func TestPingService_Trigger(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))

	for _, name := range []string{"api", "web"} {
		_, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: name, URL: "https://" + name + ".example.com"})
		require.NoError(t, err)
	}

	services, err := e.pings.Trigger(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, services, 2)
	for _, svc := range services {
		assert.Equal(t, model.PingStatusUnreachable, svc.Status)
		require.NotNil(t, svc.LastCheckedAt)
		assert.Equal(t, epoch, *svc.LastCheckedAt)
	}

	_, err = e.pings.Trigger(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrProjectNotFound)
}

func TestPingService_RegisterRacingProjectDeletion(t *testing.T) {
	tests := []struct {
		name  string
		setup func(projects *interleavedProjects, pings *interleavedPings, deleteProject func())
	}{
		{
			name: "deleted after the project read",
			setup: func(projects *interleavedProjects, _ *interleavedPings, deleteProject func()) {
				projects.after = deleteProject
			},
		},
		{
			name: "deleted after the service was stored",
			setup: func(_ *interleavedProjects, pings *interleavedPings, deleteProject func()) {
				pings.afterCreate = deleteProject
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, repository.NewMemoryStore(), failingProber{})
			project := e.createProject(t, shopProject(30))

			projects := &interleavedProjects{ProjectRepository: e.store.Projects()}
			pings := &interleavedPings{PingRepository: e.store.Pings()}
			tt.setup(projects, pings, func() {
				_, _, err := e.projects.Delete(ctx, project.ID)
				require.NoError(t, err)
			})
			svc := NewPingService(projects, pings, e.scheduler)

			_, err := svc.Register(ctx, project.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com"})
			assert.ErrorIs(t, err, model.ErrProjectNotFound)

			all, err := e.store.Pings().ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Zero(t, e.scheduler.Len())
		})
	}
}

func TestPingService_UpdateRacingDeletion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, repository.NewMemoryStore(), failingProber{})
	project := e.createProject(t, shopProject(30))
	created, err := e.pings.Register(ctx, project.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com"})
	require.NoError(t, err)

	pings := &interleavedPings{PingRepository: e.store.Pings()}
	pings.afterUpdate = func() {
		require.NoError(t, e.pings.Delete(ctx, project.ID, created.ID))
	}
	svc := NewPingService(e.store.Projects(), pings, e.scheduler)

	_, err = svc.Update(ctx, project.ID, created.ID, model.PingDefinition{Name: "api", URL: "https://api.example.com", Interval: 10})
	assert.ErrorIs(t, err, model.ErrPingServiceNotFound)
	assert.False(t, e.scheduler.Registered(created.ID))
	assert.Zero(t, e.scheduler.Len())
}
