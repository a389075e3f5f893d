package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// RedisStore keeps the record under <prefix>:<scope>:token and <prefix>:<scope>:user.
// The scope identifies one browser client.
type RedisStore struct {
	client   redis.UniversalClient
	tokenKey string
	userKey  string
	logger   *zap.Logger
}

// NewRedisStore creates a store for one scope.
func NewRedisStore(client redis.UniversalClient, prefix, scope string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := fmt.Sprintf("%s:%s", prefix, scope)
	return &RedisStore{
		client:   client,
		tokenKey: base + ":" + KeyToken,
		userKey:  base + ":" + KeyUser,
		logger:   logger,
	}
}

func (r *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	token, user, err := encode(s)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, token, 0)
		pipe.Set(ctx, r.userKey, user, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (*domain.Session, error) {
	values, err := r.client.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token, _ := values[0].(string)
	user, _ := values[1].(string)

	s, err := decode(token, user)
	if err != nil {
		r.logger.Warn("ignoring stored session", zap.String("key", r.userKey), zap.Error(err))
		return nil, nil
	}
	return s, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey, r.userKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
