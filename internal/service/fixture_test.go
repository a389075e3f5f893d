package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/backend/backendtest"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
)

var fixedNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type tokenCreds string

func (t tokenCreds) Token() string { return string(t) }

func (tokenCreds) Invalidate(string) {}

type staticViewer struct {
	caps domain.Capabilities
}

func (v staticViewer) Capabilities() domain.Capabilities { return v.caps }

type fixture struct {
	srv        *backendtest.Server
	client     *backend.Client
	viewer     staticViewer
	dispatcher events.Dispatcher
	published  []events.Event
}

// newFixture starts a fake backend and signs in as a user with the given roles.
func newFixture(t *testing.T, roles ...string) *fixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	if len(roles) == 0 {
		roles = []string{domain.RoleUser, domain.RoleAdmin}
	}
	srv.AddUser("admin", "admin@example.com", "secret1", roles...)

	anon := backend.New(backend.Options{BaseURL: srv.URL})
	resp, err := anon.Login(context.Background(), backend.LoginRequest{Username: "admin", Password: "secret1"})
	require.NoError(t, err)

	f := &fixture{
		srv:        srv,
		client:     anon.WithCredentials(tokenCreds(resp.Token)),
		dispatcher: events.NewInMemoryDispatcher(),
		viewer: staticViewer{caps: domain.CapabilitiesOf(&domain.Session{
			Identity: domain.Identity{ID: resp.ID, Username: resp.Username, Email: resp.Email, Roles: resp.Roles},
			Token:    resp.Token,
		})},
	}
	for _, et := range []events.EventType{
		events.EventMovieCreated, events.EventMoviePartiallyCreated, events.EventMovieDeleted,
		events.EventPersonCreated, events.EventReviewPosted,
	} {
		f.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}
	return f
}

func (f *fixture) orchestrator() *MovieOrchestrator {
	return NewMovieOrchestrator(OrchestratorDependencies{
		Movies:     f.client,
		Persons:    f.client,
		Viewer:     f.viewer,
		Dispatcher: f.dispatcher,
		Now:        func() time.Time { return fixedNow },
	})
}

func (f *fixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

func inceptionDraft() MovieDraft {
	return MovieDraft{Fields: map[string]string{
		FieldTitle:       "  Inception ",
		FieldReleaseYear: "2010",
		FieldDuration:    "148",
	}}
}
