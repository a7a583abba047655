package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinical-consult-assistant/internal/domain"
	"clinical-consult-assistant/internal/domain/model"
	"clinical-consult-assistant/internal/domain/ports/adapter"
	"clinical-consult-assistant/internal/domain/ports/repository"
	"clinical-consult-assistant/internal/infra/logging"
	"clinical-consult-assistant/internal/infra/metrics"
)

// Compile-time check
var _ ConsultUseCase = (*consultUC)(nil)

// Document is an uploaded binary handle passed down to the text extractor.
type Document struct {
	Reader io.ReaderAt
	Size   int64
}

// TurnResult is what one conversation turn produced.
type TurnResult struct {
	Diagnosis        string
	FollowupQuestion string
}

type ConsultUseCase interface {
	StartConsult(ctx context.Context) (*model.ConsultSession, error)
	Get(ctx context.Context, id string) (*model.ConsultSession, error)
	Reset(ctx context.Context, id string) error
	IngestDocuments(ctx context.Context, id string, history, labs *Document) (*model.ConsultSession, error)
	SendMessage(ctx context.Context, id, content string) (*TurnResult, error)
	Snapshot(ctx context.Context, id string) (model.PatientSnapshot, error)
}

type consultUC struct {
	sessions  repository.ConsultSessionRepository
	pipeline  *Pipeline
	extractor adapter.DocumentTextExtractor
	snapshots adapter.SnapshotExtractor
	log       *zerolog.Logger
}

func NewConsultUseCase(
	sessions repository.ConsultSessionRepository,
	pipeline *Pipeline,
	extractor adapter.DocumentTextExtractor,
	snapshots adapter.SnapshotExtractor,
	logger *zerolog.Logger,
) *consultUC {
	return &consultUC{
		sessions:  sessions,
		pipeline:  pipeline,
		extractor: extractor,
		snapshots: snapshots,
		log:       logger,
	}
}

func (c *consultUC) StartConsult(ctx context.Context) (*model.ConsultSession, error) {
	defer logging.TraceDuration(c.log, "ConsultUC.StartConsult")()

	s := model.NewConsultSession(uuid.NewString())
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	metrics.ConsultStarted()
	return s, nil
}

func (c *consultUC) Get(ctx context.Context, id string) (*model.ConsultSession, error) {
	return c.sessions.FindByID(ctx, id)
}

// Reset clears the buffers, conversation and diagnosis back to the empty
// defaults. The session itself survives for the next patient.
func (c *consultUC) Reset(ctx context.Context, id string) error {
	s, err := c.sessions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.Reset()
	if err := c.sessions.Save(ctx, s); err != nil {
		return err
	}
	metrics.ConsultReset()
	return nil
}

// IngestDocuments extracts text from whichever documents were provided and
// overwrites the corresponding buffer. Absent documents leave the existing
// buffer untouched, so uploads are independent and idempotent per buffer.
func (c *consultUC) IngestDocuments(ctx context.Context, id string, history, labs *Document) (*model.ConsultSession, error) {
	defer logging.TraceDuration(c.log, "ConsultUC.IngestDocuments")()

	s, err := c.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if history != nil {
		text, err := c.extractor.ExtractText(ctx, history.Reader, history.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: history document: %v", domain.ErrInvalidArgument, err)
		}
		s.HistoryText = text
		metrics.DocumentIngested("history")
	}
	if labs != nil {
		text, err := c.extractor.ExtractText(ctx, labs.Reader, labs.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: lab document: %v", domain.ErrInvalidArgument, err)
		}
		s.LabText = text
		metrics.DocumentIngested("labs")
	}
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SendMessage drives one conversation turn: the pipeline sees the full
// transcript plus the new user entry, and only after it succeeds are the
// user message and the follow-up question appended and persisted. A failed
// turn leaves the stored session exactly as it was.
func (c *consultUC) SendMessage(ctx context.Context, id, content string) (*TurnResult, error) {
	defer logging.TraceDuration(c.log, "ConsultUC.SendMessage")()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrInvalidArgument
	}
	s, err := c.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Patient text never reaches the log raw.
	logging.With(ctx, c.log).Debug().Str("content", logging.Redact(content, false)).Msg("consult message")

	conversation := append(s.Transcript(), model.FormatEntry(model.RoleUser, content))
	res, err := c.pipeline.Invoke(ctx, s.HistoryText, s.LabText, conversation)
	if err != nil {
		return nil, err
	}

	s.AddMessage(model.RoleUser, content)
	if res.Diagnosis != "" {
		s.Diagnosis = res.Diagnosis
	}
	s.AddMessage(model.RoleAssistant, res.FollowupQuestion)
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return &TurnResult{Diagnosis: res.Diagnosis, FollowupQuestion: res.FollowupQuestion}, nil
}

// Snapshot recomputes the derived display fields from the current buffers.
func (c *consultUC) Snapshot(ctx context.Context, id string) (model.PatientSnapshot, error) {
	s, err := c.sessions.FindByID(ctx, id)
	if err != nil {
		return model.PatientSnapshot{}, err
	}
	return c.snapshots.Extract(s.CombinedText()), nil
}
