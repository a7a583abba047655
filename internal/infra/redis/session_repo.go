package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"clinical-consult-assistant/internal/domain"
	"clinical-consult-assistant/internal/domain/model"
	"clinical-consult-assistant/internal/domain/ports/repository"
)

var _ repository.ConsultSessionRepository = (*SessionRepo)(nil)

// SessionRepo manages consult session state in Redis. State is ephemeral:
// each save refreshes the TTL, so an abandoned consult expires on its own.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client RedisClient, ttl time.Duration) repository.ConsultSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) sessionKey(id string) string {
	return "consult:" + id
}

func (r *SessionRepo) Save(ctx context.Context, s *model.ConsultSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.sessionKey(s.ID), data, r.ttl)
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.ConsultSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var s model.ConsultSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.sessionKey(id))
}
