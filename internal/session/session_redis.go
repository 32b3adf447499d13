package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps sessions in a Redis hash per user, so dialog state
// survives bot restarts and can be shared by multiple bot instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	session := Session{State: values["state"]}
	if raw, ok := values["receiver_id"]; ok && raw != "" {
		receiverID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Session{}, fmt.Errorf("decode session receiver: %w", err)
		}
		session.ReceiverID = &receiverID
	}
	return session, nil
}

func (s *RedisStore) Put(ctx context.Context, userID int64, session Session) error {
	key := sessionKey(userID)
	fields := map[string]any{"state": session.State}
	if session.ReceiverID != nil {
		fields["receiver_id"] = strconv.FormatInt(*session.ReceiverID, 10)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
