package admin

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/models"
	"muvbackoffice/internal/notify"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultSessionTTL = 24 * time.Hour

// Sessions manages OTP verification material and the time-boxed admin
// sessions built from it. Pending codes are stored hashed and are single-use.
type Sessions struct {
	Directory *Directory
	Notifier  notify.Notifier
	TTL       time.Duration
	Now       func() time.Time

	mu      sync.Mutex
	pending map[string][]byte          // email -> bcrypt hash of the code
	active  map[string]*models.Session // token -> session
}

func NewSessions(directory *Directory, notifier notify.Notifier, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		Directory: directory,
		Notifier:  notifier,
		TTL:       ttl,
		pending:   make(map[string][]byte),
		active:    make(map[string]*models.Session),
	}
}

// RequestOTP issues a fresh 6-digit code for a directory member and hands it
// to the notifier. The pending code is committed before delivery is
// attempted, so a delivery failure is reported without losing the code.
func (s *Sessions) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	ok, err := s.Directory.Contains(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not an administrator", apperr.ErrUnauthorized, email)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[email] = hash
	s.mu.Unlock()

	if err := s.Notifier.Send(ctx, email, code); err != nil {
		return fmt.Errorf("otp delivery to %s: %w", email, err)
	}
	return nil
}

// ResendOTP regenerates the code; the previous one dies immediately.
func (s *Sessions) ResendOTP(ctx context.Context, email string) error {
	return s.RequestOTP(ctx, email)
}

// VerifyOTP exchanges a matching code for a session. The code is cleared on
// success, so it cannot be replayed.
func (s *Sessions) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	hash, ok := s.pending[email]
	s.mu.Unlock()
	if !ok {
		return nil, apperr.ErrInvalidOTP
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return nil, apperr.ErrInvalidOTP
	}

	now := s.now()
	sess := &models.Session{
		Token:     uuid.NewString(),
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.TTL),
	}

	s.mu.Lock()
	delete(s.pending, email)
	s.active[sess.Token] = sess
	s.mu.Unlock()

	return sess, nil
}

// Authorize re-checks validity on every privileged call: TTL first, then
// directory membership, since access can be revoked mid-session. Failed
// sessions are destroyed lazily here.
func (s *Sessions) Authorize(ctx context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	sess, ok := s.active[token]
	s.mu.Unlock()
	if !ok {
		return nil, apperr.ErrUnauthorized
	}

	if !s.now().Before(sess.ExpiresAt) {
		s.Logout(token)
		return nil, apperr.ErrExpired
	}

	member, err := s.Directory.Contains(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	if !member {
		s.Logout(token)
		return nil, apperr.ErrRevoked
	}
	return sess, nil
}

// Logout destroys the session. Idempotent.
func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	delete(s.active, token)
	s.mu.Unlock()
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// generateCode draws uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
