// Package session owns the client-side authentication session: its persistence,
// the state machine that mutates it and the capability view derived from it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/reelhouse/movie-catalog/internal/auth"
	"github.com/reelhouse/movie-catalog/internal/domain"
)

// Keys of the persisted record.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store persists one session. Load returns nil, nil when no usable session is
// stored; corrupt records count as absent. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Load(ctx context.Context) (*domain.Session, error)
	Clear(ctx context.Context) error
}

var errCorrupt = errors.New("corrupt session record")

// encode renders s as the two-key record.
func encode(s *domain.Session) (token, user string, err error) {
	if !s.Authenticated() {
		return "", "", errors.New("cannot persist a session without a token")
	}
	raw, err := json.Marshal(s.Identity)
	if err != nil {
		return "", "", err
	}
	return s.Token, string(raw), nil
}

// decode rebuilds a session from the two-key record. Missing keys yield nil, nil.
func decode(token, user string) (*domain.Session, error) {
	if token == "" || user == "" {
		return nil, nil
	}
	var id domain.Identity
	if err := json.Unmarshal([]byte(user), &id); err != nil {
		return nil, errCorrupt
	}
	if strings.TrimSpace(id.Username) == "" || len(id.Roles) == 0 {
		return nil, errCorrupt
	}
	// A JWT issued for someone else means the user record is stale.
	if claims, err := auth.InspectToken(token); err == nil && claims.Subject != "" && claims.Subject != id.Username {
		return nil, errCorrupt
	}
	return &domain.Session{Identity: id, Token: token}, nil
}
