package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/domain/voice"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// =========== Mocks ===========

type mockRepo struct {
	byID map[uuid.UUID]*Summary
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Summary)}
}

func (m *mockRepo) Create(_ context.Context, s *Summary) error {
	m.byID[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Summary, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) GetByInteraction(_ context.Context, interactionID uuid.UUID) (*Summary, error) {
	for _, s := range m.byID {
		if s.InteractionID == interactionID {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Approve(_ context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, final *StructuredNote) error {
	s, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if s.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	s.Status = StatusApproved
	s.ReviewedBy = &reviewedBy
	s.ReviewedAt = &reviewedAt
	s.FinalVersion = final
	return nil
}

func (m *mockRepo) Reject(_ context.Context, id, reviewedBy uuid.UUID, reviewedAt time.Time, reason string) error {
	s, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if s.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	s.Status = StatusRejected
	s.ReviewedBy = &reviewedBy
	s.ReviewedAt = &reviewedAt
	s.RejectionReason = reason
	return nil
}

type mockTranscriptRepo struct {
	byInteraction map[uuid.UUID]*voice.Transcript
}

func (m *mockTranscriptRepo) Create(_ context.Context, t *voice.Transcript) error {
	m.byInteraction[t.InteractionID] = t
	return nil
}

func (m *mockTranscriptRepo) GetByInteraction(_ context.Context, interactionID uuid.UUID) (*voice.Transcript, error) {
	t, ok := m.byInteraction[interactionID]
	if !ok {
		return nil, voice.ErrNotFound
	}
	return t, nil
}

func (m *mockTranscriptRepo) AppendSegment(_ context.Context, _ uuid.UUID, _ voice.Segment) error {
	return nil
}

type mockInteractionRepo struct {
	byID map[uuid.UUID]*interaction.Interaction
}

func (m *mockInteractionRepo) Create(_ context.Context, i *interaction.Interaction) error {
	m.byID[i.ID] = i
	return nil
}

func (m *mockInteractionRepo) GetByID(_ context.Context, id uuid.UUID) (*interaction.Interaction, error) {
	i, ok := m.byID[id]
	if !ok {
		return nil, interaction.ErrNotFound
	}
	return i, nil
}

func (m *mockInteractionRepo) FindActiveByDoctor(_ context.Context, _, _ uuid.UUID) (*interaction.Interaction, error) {
	return nil, interaction.ErrNotFound
}

func (m *mockInteractionRepo) Close(_ context.Context, _ uuid.UUID) (*interaction.Interaction, error) {
	return nil, interaction.ErrNotFound
}

func (m *mockInteractionRepo) ListByTenant(_ context.Context, _ uuid.UUID, _, _ int) ([]*interaction.Interaction, int, error) {
	return nil, 0, nil
}

type mockSummarizer struct {
	note      *StructuredNote
	err       error
	lastInput string
	callCount int
}

func (m *mockSummarizer) Summarize(_ context.Context, transcript string) (*StructuredNote, error) {
	m.callCount++
	m.lastInput = transcript
	if m.err != nil {
		return nil, m.err
	}
	return m.note, nil
}

func (m *mockSummarizer) ModelVersion() string { return "test-model-1" }

type mockRecorder struct {
	events []audit.Event
}

func (m *mockRecorder) Record(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

type fixture struct {
	svc          *Service
	repo         *mockRepo
	transcripts  *mockTranscriptRepo
	interactions *mockInteractionRepo
	summarizer   *mockSummarizer
	rec          *mockRecorder
	tenantID     uuid.UUID
	doctorID     uuid.UUID
	interaction  *interaction.Interaction
}

func newFixture() *fixture {
	f := &fixture{
		repo:         newMockRepo(),
		transcripts:  &mockTranscriptRepo{byInteraction: make(map[uuid.UUID]*voice.Transcript)},
		interactions: &mockInteractionRepo{byID: make(map[uuid.UUID]*interaction.Interaction)},
		summarizer: &mockSummarizer{note: &StructuredNote{
			Summary:      "Patient seen for persistent cough.",
			Complaints:   []string{"cough"},
			ActionPoints: []string{"chest x-ray"},
		}},
		rec:      &mockRecorder{},
		tenantID: uuid.New(),
		doctorID: uuid.New(),
	}
	guard := auth.NewTenantGuard(f.rec, zerolog.Nop())
	f.svc = NewService(f.repo, f.transcripts, f.interactions, f.summarizer, guard, zerolog.Nop())

	f.interaction = &interaction.Interaction{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		DoctorID:  f.doctorID,
		Status:    interaction.StatusCompleted,
		StartedAt: time.Now().UTC(),
	}
	f.interactions.byID[f.interaction.ID] = f.interaction
	return f
}

func (f *fixture) addTranscript(texts ...string) {
	segs := make([]voice.Segment, 0, len(texts))
	for _, txt := range texts {
		segs = append(segs, voice.Segment{Timestamp: time.Now().UTC(), Text: txt})
	}
	f.transcripts.byInteraction[f.interaction.ID] = &voice.Transcript{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		InteractionID: f.interaction.ID,
		Segments:      segs,
	}
}

func (f *fixture) identity() auth.Identity {
	return auth.Identity{
		UserID:        f.doctorID.String(),
		TenantID:      f.tenantID.String(),
		RoleName:      "DOCTOR",
		ActorType:     auth.ActorHuman,
		Authenticated: true,
	}
}

// =========== Tests ===========

func TestGenerate_DraftsPendingSummary(t *testing.T) {
	f := newFixture()
	f.addTranscript("patient reports cough", "for two weeks")

	sum, err := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Status != StatusPending {
		t.Errorf("a fresh draft must be pending, got %s", sum.Status)
	}
	if sum.TenantID != f.tenantID || sum.DoctorID != f.doctorID {
		t.Errorf("summary bound to wrong identity: %+v", sum)
	}
	if sum.Note.Summary != "Patient seen for persistent cough." {
		t.Errorf("note = %+v", sum.Note)
	}
	if sum.ModelVersion != "test-model-1" || sum.PromptVersion != PromptVersion {
		t.Errorf("version stamps wrong: model=%q prompt=%q", sum.ModelVersion, sum.PromptVersion)
	}
	if !strings.Contains(f.summarizer.lastInput, "patient reports cough for two weeks") {
		t.Errorf("segments must be joined in order, got %q", f.summarizer.lastInput)
	}
	if sum.Confidence != confidenceScore(f.summarizer.lastInput) {
		t.Errorf("confidence = %v", sum.Confidence)
	}
}

func TestGenerate_NoTranscript(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)
	if !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
	if f.summarizer.callCount != 0 {
		t.Error("must not call the model without a transcript")
	}
}

func TestGenerate_EmptyTranscript(t *testing.T) {
	f := newFixture()
	f.addTranscript()

	_, err := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)
	if !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("a transcript with zero segments has nothing to summarize, got %v", err)
	}
}

func TestGenerate_CrossTenantRejected(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	outsider := auth.Identity{
		UserID:        uuid.New().String(),
		TenantID:      uuid.New().String(),
		RoleName:      "DOCTOR",
		Authenticated: true,
	}

	_, err := f.svc.Generate(context.Background(), outsider, f.interaction.ID)
	if !errors.Is(err, auth.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
	if len(f.rec.events) != 1 || f.rec.events[0].Action != audit.ActionCrossTenantAccess {
		t.Fatalf("expected one CROSS_TENANT_ACCESS_ATTEMPT event, got %+v", f.rec.events)
	}
	if f.summarizer.callCount != 0 {
		t.Error("cross-tenant requests must never reach the model")
	}
}

func TestGenerate_SummarizerError(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	f.summarizer.err = errors.New("model unavailable")

	if _, err := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID); err == nil {
		t.Fatal("expected summarizer error to propagate")
	}
	if len(f.repo.byID) != 0 {
		t.Error("a failed generation must not store a summary")
	}
}

func TestApprove_DraftBecomesFinal(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	sum, _ := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)

	approved, err := f.svc.Approve(context.Background(), f.identity(), sum.ID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}
	if approved.ReviewedBy == nil || *approved.ReviewedBy != f.doctorID {
		t.Error("reviewer must come from the identity")
	}
	// Without edits the draft note is adopted verbatim.
	if approved.FinalVersion == nil || approved.FinalVersion.Summary != sum.Note.Summary {
		t.Errorf("final version = %+v", approved.FinalVersion)
	}
}

func TestApprove_WithEdits(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	sum, _ := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)

	edited := &StructuredNote{
		Summary:      "Corrected narrative.",
		Complaints:   []string{"cough", "fever"},
		ActionPoints: []string{"chest x-ray", "follow up in a week"},
	}
	approved, err := f.svc.Approve(context.Background(), f.identity(), sum.ID, edited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.FinalVersion.Summary != "Corrected narrative." {
		t.Errorf("edits must become the final version, got %+v", approved.FinalVersion)
	}
	// The original draft stays untouched for the audit trail.
	if approved.Note.Summary != sum.Note.Summary {
		t.Error("the draft note must be preserved alongside the final version")
	}
}

func TestReject_RecordsReason(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	sum, _ := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)

	rejected, err := f.svc.Reject(context.Background(), f.identity(), sum.ID, "hallucinated medication")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason != "hallucinated medication" {
		t.Errorf("reason = %q", rejected.RejectionReason)
	}
}

func TestReview_SecondReviewFails(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	sum, _ := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)

	if _, err := f.svc.Approve(context.Background(), f.identity(), sum.ID, nil); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if _, err := f.svc.Reject(context.Background(), f.identity(), sum.ID, "changed my mind"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), f.identity(), sum.ID, nil); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestGet_CrossTenantRejected(t *testing.T) {
	f := newFixture()
	f.addTranscript("some audio")
	sum, _ := f.svc.Generate(context.Background(), f.identity(), f.interaction.ID)

	outsider := auth.Identity{
		UserID:        uuid.New().String(),
		TenantID:      uuid.New().String(),
		RoleName:      "DOCTOR",
		Authenticated: true,
	}
	_, err := f.svc.Get(context.Background(), outsider, sum.ID)
	if !errors.Is(err, auth.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}
