package repository

import (
	"context"

	"clinical-consult-assistant/internal/domain/model"
)

// ConsultSessionRepository stores per-session consult state. Sessions are
// ephemeral and owned by one interactive user each; isolation across users
// is keyed by session ID here, not inside the pipeline.
type ConsultSessionRepository interface {
	Save(ctx context.Context, s *model.ConsultSession) error
	FindByID(ctx context.Context, id string) (*model.ConsultSession, error)
	Delete(ctx context.Context, id string) error
}
