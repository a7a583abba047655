package memory

import (
	"context"
	"sync"

	"clinical-consult-assistant/internal/domain"
	"clinical-consult-assistant/internal/domain/model"
	"clinical-consult-assistant/internal/domain/ports/repository"
)

var _ repository.ConsultSessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps consult sessions in process memory. It is the default
// store for single-node deployments; the redis repository covers
// multi-instance ones. Callers always get copies, never shared state.
type SessionRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.ConsultSession
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{byID: make(map[string]*model.ConsultSession)}
}

func (r *SessionRepo) Save(ctx context.Context, s *model.ConsultSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = clone(s)
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.ConsultSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s), nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func clone(s *model.ConsultSession) *model.ConsultSession {
	cp := *s
	cp.Messages = append([]model.Message(nil), s.Messages...)
	return &cp
}
