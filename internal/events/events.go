// Package events publishes domain events after their transaction commits.
package events

import (
	"context"
	"sync"
	"time"
)

// Subjects published by the shop.
const (
	SubjectPurchasesMaterialized = "savoir.purchases.materialized"
	SubjectLessonValidated       = "savoir.lesson.validated"
	SubjectCertificationIssued   = "savoir.certification.issued"
)

// Publisher sends an event payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// PurchasesMaterialized is emitted once a paid cart has become purchases.
type PurchasesMaterialized struct {
	UserID      int64     `json:"user_id"`
	PurchaseIDs []int64   `json:"purchase_ids"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LessonValidated is emitted for every newly validated lesson, with the
// outcome of the cascade it triggered.
type LessonValidated struct {
	UserID          int64     `json:"user_id"`
	LessonID        int64     `json:"lesson_id"`
	CursusID        int64     `json:"cursus_id"`
	ThemeID         int64     `json:"theme_id"`
	CursusValidated bool      `json:"cursus_validated"`
	ThemeValidated  bool      `json:"theme_validated"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// CertificationIssued is emitted when a theme receives its certification.
type CertificationIssued struct {
	CertificationID int64     `json:"certification_id"`
	ThemeID         int64     `json:"theme_id"`
	UserID          int64     `json:"user_id,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// Message is an event captured by MemoryPublisher.
type Message struct {
	Subject string
	Payload any
}

// MemoryPublisher keeps published events in memory for tests and local runs.
type MemoryPublisher struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (m *MemoryPublisher) Publish(_ context.Context, subject string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, Message{Subject: subject, Payload: payload})
	return nil
}

// Subjects returns the subjects published so far, in order.
func (m *MemoryPublisher) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.Messages))
	for _, msg := range m.Messages {
		out = append(out, msg.Subject)
	}
	return out
}
