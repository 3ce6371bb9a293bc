package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamx/teamfinder/internal/db/dbtest"
	"github.com/teamx/teamfinder/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	files    repository.FileRepository
	mailer   *recordingMailer
	clock    *testClock
	otp      *OTPService
	tokens   *TokenIssuer
	auth     *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	f := &fixture{
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		files:    repository.NewFileRepository(db),
		mailer:   &recordingMailer{},
		clock:    &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	f.otp = NewOTPService(f.users, f.mailer, OTPConfig{})
	f.otp.now = f.clock.Now

	f.tokens = NewTokenIssuer(testSecret, 48*time.Hour)
	f.tokens.now = f.clock.Now

	f.auth = NewAuthService(f.users, f.otp, f.tokens, f.mailer, "TeamX", "http://localhost:5173")
	f.auth.bcryptCost = bcrypt.MinCost
	f.auth.now = f.clock.Now

	return f
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// requestCode issues an OTP and returns the plaintext code from the mail.
func (f *fixture) requestCode(t *testing.T, email string) string {
	t.Helper()

	_, err := f.auth.RequestOTP(context.Background(), email)
	require.NoError(t, err)

	msg := f.mailer.last(t)
	require.Equal(t, email, msg.To)
	code := codePattern.FindString(msg.Text)
	require.NotEmpty(t, code, "no code in %q", msg.Text)
	return code
}

// signup runs the whole flow and returns the session.
func (f *fixture) signup(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	ctx := context.Background()

	code := f.requestCode(t, email)
	_, err := f.auth.VerifyOTP(ctx, email, code)
	require.NoError(t, err)

	result, err := f.auth.CompleteSignup(ctx, email, password)
	require.NoError(t, err)
	return result
}
