package model

import (
	"strings"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one conversation entry. Immutable once appended.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConsultSession is the aggregate root for one patient consult: the two
// extracted document buffers, the ordered conversation and the most recent
// diagnosis hypothesis. Message order is chronological and authoritative;
// it defines the context sent to the model.
type ConsultSession struct {
	ID          string    `json:"id"`
	HistoryText string    `json:"history_text"`
	LabText     string    `json:"lab_text"`
	Messages    []Message `json:"messages"`
	Diagnosis   string    `json:"diagnosis"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewConsultSession(id string) *ConsultSession {
	return &ConsultSession{
		ID:        id,
		Messages:  make([]Message, 0, 8),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (s *ConsultSession) AddMessage(role MessageRole, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	s.UpdatedAt = time.Now()
}

// Reset restores the empty defaults for a new patient. The session identity
// survives a reset; only the clinical state is cleared.
func (s *ConsultSession) Reset() {
	s.HistoryText = ""
	s.LabText = ""
	s.Messages = s.Messages[:0]
	s.Diagnosis = ""
	s.UpdatedAt = time.Now()
}

// FormatEntry renders a message the way the pipeline expects conversation
// entries: "ROLE: content" with the role upper-cased.
func FormatEntry(role MessageRole, content string) string {
	return strings.ToUpper(string(role)) + ": " + content
}

// Transcript returns the conversation as role-prefixed strings in append
// order, with no reordering or filtering.
func (s *ConsultSession) Transcript() []string {
	out := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, FormatEntry(m.Role, m.Content))
	}
	return out
}

// CombinedText joins the two document buffers for display-field mining.
func (s *ConsultSession) CombinedText() string {
	return s.HistoryText + "\n" + s.LabText
}
