package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinical-consult-assistant/internal/domain/ports/adapter"
	"clinical-consult-assistant/internal/infra/metrics"
)

// PipelineState is the accumulated state threaded through the stages. Each
// stage reads what it needs and writes its partial result.
type PipelineState struct {
	HistoryText      string
	LabText          string
	Conversation     []string
	Diagnosis        string
	FollowupQuestion string
}

// PipelineResult is the transient outcome of one invocation.
type PipelineResult struct {
	Diagnosis        string
	FollowupQuestion string
}

type pipelineStage struct {
	name string
	run  func(ctx context.Context, st *PipelineState) error
}

// Pipeline runs a fixed, ordered sequence of named stages against the
// completion service. Stages run synchronously and unconditionally in
// order; any stage error aborts the invocation and propagates.
type Pipeline struct {
	ai          adapter.CompletionAdapter
	model       string
	temperature float32
	stages      []pipelineStage
}

// NewDiagnosisPipeline builds the two-stage consult pipeline: infer a
// diagnosis hypothesis, then generate follow-up questions from it.
func NewDiagnosisPipeline(ai adapter.CompletionAdapter, model string, temperature float32) *Pipeline {
	p := &Pipeline{ai: ai, model: model, temperature: temperature}
	p.stages = []pipelineStage{
		{name: "diagnosis", run: p.runDiagnosis},
		{name: "followup", run: p.runFollowup},
	}
	return p
}

// Invoke runs every stage in order over a fresh state built from the
// session buffers and the role-prefixed conversation.
func (p *Pipeline) Invoke(ctx context.Context, historyText, labText string, conversation []string) (PipelineResult, error) {
	st := PipelineState{
		HistoryText:  historyText,
		LabText:      labText,
		Conversation: conversation,
	}
	for _, stage := range p.stages {
		start := time.Now()
		err := stage.run(ctx, &st)
		metrics.ObserveStage(stage.name, time.Since(start).Milliseconds(), err == nil)
		if err != nil {
			metrics.PipelineInvoked(false)
			return PipelineResult{}, fmt.Errorf("pipeline stage %s: %w", stage.name, err)
		}
	}
	metrics.PipelineInvoked(true)
	return PipelineResult{Diagnosis: st.Diagnosis, FollowupQuestion: st.FollowupQuestion}, nil
}

func (p *Pipeline) runDiagnosis(ctx context.Context, st *PipelineState) error {
	out, err := p.ai.Complete(ctx, p.model, SystemInstruction,
		diagnosisPrompt(st.HistoryText, st.LabText, st.Conversation), p.temperature)
	if err != nil {
		return err
	}
	st.Diagnosis = strings.TrimSpace(out)
	return nil
}

// runFollowup sees only the stage-1 diagnosis text: no history, no labs,
// no raw conversation.
func (p *Pipeline) runFollowup(ctx context.Context, st *PipelineState) error {
	out, err := p.ai.Complete(ctx, p.model, SystemInstruction,
		followupPrompt(st.Diagnosis), p.temperature)
	if err != nil {
		return err
	}
	st.FollowupQuestion = strings.TrimSpace(out)
	return nil
}
