// Package voice implements the audio streaming endpoint and transcript
// storage for interactions. Audio frames arrive over a WebSocket, are
// transcribed by an external STT service, and accumulate as ordered
// segments on the interaction's transcript.
package voice

import (
	"time"

	"github.com/google/uuid"
)

// Segment is one transcribed chunk of audio. Segments are append-only and
// ordered by arrival on the connection.
type Segment struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

type Transcript struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	InteractionID uuid.UUID `json:"interaction_id"`
	Segments      []Segment `json:"segments"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
