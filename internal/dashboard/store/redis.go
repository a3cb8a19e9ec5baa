package store

import (
	"context"
	"errors"
	"time"

	apperrors "cohost-dashboard/internal/common/errors"
	"cohost-dashboard/internal/dashboard"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces session keys in a shared Redis.
const KeyPrefix = "cohost:session:"

// Redis keeps sessions in Redis so several dashboard processes can share them.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

func (r *Redis) Get(ctx context.Context, sessionID string) (dashboard.State, error) {
	data, err := r.client.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dashboard.State{}, apperrors.NewSessionNotFoundError(sessionID, dashboard.ErrSessionNotFound)
	}
	if err != nil {
		return dashboard.State{}, apperrors.NewSessionStoreError("get", err)
	}

	state, err := decodeState(data)
	if err != nil {
		return dashboard.State{}, apperrors.NewSessionStoreError("decode", err)
	}
	return state, nil
}

// Put stores state and refreshes the key's ttl.
func (r *Redis) Put(ctx context.Context, sessionID string, state dashboard.State) error {
	data, err := encodeState(state)
	if err != nil {
		return apperrors.NewSessionStoreError("encode", err)
	}
	if err := r.client.Set(ctx, Key(sessionID), data, r.ttl).Err(); err != nil {
		return apperrors.NewSessionStoreError("set", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return apperrors.NewSessionStoreError("delete", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewSessionStoreError("ping", err)
	}
	return nil
}
