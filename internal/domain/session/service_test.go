package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// =========== Mocks ===========

type mockUserRepo struct {
	byEmail map[string]*user.User
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) ListByTenant(_ context.Context, _ uuid.UUID, _, _ int) ([]*user.User, int, error) {
	return nil, 0, nil
}

type mockSessionRepo struct {
	created []*Session
}

func (m *mockSessionRepo) Create(_ context.Context, s *Session) error {
	m.created = append(m.created, s)
	return nil
}

func (m *mockSessionRepo) ListByUser(_ context.Context, _ uuid.UUID, _, _ int) ([]*Session, int, error) {
	return m.created, len(m.created), nil
}

type mockRecorder struct {
	events []audit.Event
}

func (m *mockRecorder) Record(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

var testSecret = []byte("test-secret")

func newTestService(t *testing.T) (*Service, *mockUserRepo, *mockSessionRepo, *mockRecorder, *user.User) {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &user.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "doc@clinic.test",
		PasswordHash: hash,
		RoleName:     "DOCTOR",
		Active:       true,
	}
	users := &mockUserRepo{byEmail: map[string]*user.User{u.Email: u}}
	sessions := &mockSessionRepo{}
	rec := &mockRecorder{}
	issuer := auth.NewIssuer(testSecret, time.Hour)
	svc := NewService(users, sessions, issuer, time.Hour, rec, zerolog.Nop())
	return svc, users, sessions, rec, u
}

// =========== Tests ===========

func TestLogin_Success(t *testing.T) {
	svc, _, sessions, rec, u := newTestService(t)

	res, err := svc.Login(context.Background(), "doc@clinic.test", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := auth.NewVerifier(testSecret).Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != u.ID.String() || claims.TenantID != u.TenantID.String() {
		t.Errorf("token claims wrong: %+v", claims)
	}
	if claims.RoleName != "DOCTOR" {
		t.Errorf("expected role DOCTOR in claims, got %q", claims.RoleName)
	}

	if len(sessions.created) != 1 {
		t.Fatalf("expected one session record, got %d", len(sessions.created))
	}
	if sessions.created[0].TokenHash == "" {
		t.Error("session must store a token hash, never the raw token")
	}

	if len(rec.events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Action != audit.ActionLoginSuccess {
		t.Errorf("expected LOGIN_SUCCESS, got %s", ev.Action)
	}
	if ev.ActorID != u.ID.String() || ev.TenantID != u.TenantID.String() {
		t.Errorf("LOGIN_SUCCESS must be attributed to the user, got %+v", ev)
	}
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), "  DOC@Clinic.Test ", "correct horse"); err != nil {
		t.Fatalf("expected login with differently-cased email to succeed, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, sessions, rec, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "doc@clinic.test", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(sessions.created) != 0 {
		t.Error("failed login must not create a session")
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Action != audit.ActionLoginFailed {
		t.Errorf("expected LOGIN_FAILED, got %s", ev.Action)
	}
	// Unverified claims are never attributed.
	if ev.ActorID != "" || ev.TenantID != "" {
		t.Errorf("LOGIN_FAILED must carry no attribution, got %+v", ev)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, rec, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@clinic.test", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionLoginFailed {
		t.Fatalf("expected one LOGIN_FAILED event, got %+v", rec.events)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, users, _, rec, u := newTestService(t)
	users.byEmail[u.Email].Active = false

	_, err := svc.Login(context.Background(), u.Email, "correct horse")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("deactivated account must fail like any bad credential, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionLoginFailed {
		t.Fatalf("expected one LOGIN_FAILED event, got %+v", rec.events)
	}
}

func TestLogin_MarksScope(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	scope := &audit.Scope{RequestID: "req-1"}
	ctx := audit.WithScope(context.Background(), scope)

	if _, err := svc.Login(ctx, "doc@clinic.test", "correct horse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scope.NamedWritten() {
		t.Error("login must mark the scope so no generic event duplicates it")
	}
}
