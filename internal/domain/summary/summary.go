// Package summary implements AI-drafted clinical notes and the human review
// gate. A generated note is never final on its own; it stays pending until a
// clinician approves or rejects it.
package summary

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StructuredNote is the model's output shape: a short narrative plus the
// complaints and action points it extracted. Nothing else is accepted.
type StructuredNote struct {
	Summary      string   `json:"summary"`
	Complaints   []string `json:"complaints"`
	ActionPoints []string `json:"action_points"`
}

type Summary struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	InteractionID   uuid.UUID       `json:"interaction_id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	Note            StructuredNote  `json:"note"`
	Confidence      float64         `json:"confidence_score"`
	ModelVersion    string          `json:"model_version"`
	PromptVersion   string          `json:"prompt_version"`
	Status          Status          `json:"status"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	FinalVersion    *StructuredNote `json:"final_version,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
