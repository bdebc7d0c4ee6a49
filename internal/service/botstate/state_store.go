package botstate

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/redis/go-redis/v9"
)

// BotState is the monitor's persisted snapshot: the session phase it last
// observed plus the books it owns, restored on restart.
type BotState struct {
	Phase     string                `json:"phase"`
	Positions []entity.Position     `json:"positions"`
	Trades    []entity.TradeRequest `json:"trades"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type Store interface {
	Load(ctx context.Context, key string) (BotState, bool, error)
	Save(ctx context.Context, key string, state BotState) error
	Reset(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cacheDSN string) (*RedisStore, error) {
	if cacheDSN == "" {
		return nil, fmt.Errorf("redis cache_dsn is required")
	}

	options, err := redis.ParseURL(cacheDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis cache_dsn: %w", err)
	}

	return &RedisStore{client: redis.NewClient(options)}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (BotState, bool, error) {
	rawState, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return BotState{}, false, nil
		}
		return BotState{}, false, err
	}

	var state BotState
	if err := json.Unmarshal([]byte(rawState), &state); err != nil {
		return BotState{}, false, err
	}

	return state, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, state BotState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, payload, 0).Err()
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
