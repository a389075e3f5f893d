package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reelhouse/movie-catalog/internal/events"
)

func TestActivityService_LogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewActivityService(dispatcher, zap.New(core)).RegisterHandlers()
	ctx := context.Background()
	actor := events.Actor{UserID: 7, Username: "admin"}

	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventSessionChanged,
		Actor:   actor,
		Payload: events.SessionChangedPayload{Transition: events.TransitionLogin, Authenticated: true},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventMoviePartiallyCreated,
		Actor:   actor,
		Payload: events.MoviePartiallyCreatedPayload{MovieID: 101, Step: StepGenres, Error: "boom"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventReviewPosted,
		Actor:   actor,
		Payload: events.ReviewPostedPayload{ReviewID: 1, MovieID: 101, Rating: 4},
	}))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "SessionChanged", entries[0].Message)
	assert.Equal(t, "login", entries[0].ContextMap()["transition"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, StepGenres, entries[1].ContextMap()["step"])
	assert.Equal(t, string(events.EventReviewPosted), entries[2].Message)
	assert.Equal(t, "admin", entries[2].ContextMap()["username"])
}

func TestActivityService_NilDispatcher(t *testing.T) {
	NewActivityService(nil, nil).RegisterHandlers()
}
