package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/events"
)

// ActivityService writes an audit line for every catalog and session event.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger.Named("activity"),
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionChanged, a.handleSessionChanged)
	a.dispatcher.Subscribe(events.EventMovieCreated, a.handleMovieCreated)
	a.dispatcher.Subscribe(events.EventMoviePartiallyCreated, a.handleMoviePartiallyCreated)
	a.dispatcher.Subscribe(events.EventMovieDeleted, a.handleEvent)
	a.dispatcher.Subscribe(events.EventPersonCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventReviewPosted, a.handleEvent)
}

func (a *ActivityService) handleSessionChanged(_ context.Context, event events.Event) error {
	p, ok := event.Payload.(events.SessionChangedPayload)
	if !ok {
		return a.handleEvent(context.Background(), event)
	}
	a.logger.Info("SessionChanged",
		append(a.fields(event),
			zap.String("transition", string(p.Transition)),
			zap.Bool("authenticated", p.Authenticated),
			zap.Strings("roles", p.Roles))...)
	return nil
}

func (a *ActivityService) handleMovieCreated(_ context.Context, event events.Event) error {
	p, ok := event.Payload.(events.MovieCreatedPayload)
	if !ok {
		return a.handleEvent(context.Background(), event)
	}
	a.logger.Info("MovieCreated",
		append(a.fields(event),
			zap.Int64("movie_id", p.MovieID),
			zap.String("title", p.Title),
			zap.Int("genres", p.Genres),
			zap.Int("credits", p.Credits))...)
	return nil
}

// Partial creations leave an incomplete movie on the backend, so they log at warn.
func (a *ActivityService) handleMoviePartiallyCreated(_ context.Context, event events.Event) error {
	p, ok := event.Payload.(events.MoviePartiallyCreatedPayload)
	if !ok {
		return a.handleEvent(context.Background(), event)
	}
	a.logger.Warn("MoviePartiallyCreated",
		append(a.fields(event),
			zap.Int64("movie_id", p.MovieID),
			zap.String("title", p.Title),
			zap.String("step", p.Step),
			zap.String("error", p.Error))...)
	return nil
}

func (a *ActivityService) handleEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), append(a.fields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *ActivityService) fields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.Actor.UserID),
		zap.String("username", event.Actor.Username),
	}
}
