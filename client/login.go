package client

import (
	"context"
	"errors"
	"strings"
	"time"
)

// LoginState is the client-visible state of the OTP login flow.
type LoginState int

const (
	// StateEmailEntry is the initial email prompt.
	StateEmailEntry LoginState = iota
	// StateOTPEntry is the code prompt after a code was sent.
	StateOTPEntry
	// StateAuthenticated is the terminal success state.
	StateAuthenticated
)

// ResendCooldown throttles resend requests. Verification attempts are never
// throttled client-side.
const ResendCooldown = 60 * time.Second

var (
	// ErrInvalidState is returned when a transition is attempted from the
	// wrong state, e.g. submitting a code before an email.
	ErrInvalidState = errors.New("invalid login flow state")

	// ErrResendCooldown is returned when a resend is attempted before the
	// cooldown elapses.
	ErrResendCooldown = errors.New("resend cooldown active")
)

// LoginFlow drives the EmailEntry -> OtpEntry -> Authenticated state machine
// shared by every surface's login screen.
type LoginFlow struct {
	client   *Client
	state    LoginState
	email    string
	lastSent time.Time

	now func() time.Time
}

// NewLoginFlow constructs a flow in the email-entry state.
func NewLoginFlow(c *Client) *LoginFlow {
	return &LoginFlow{client: c, state: StateEmailEntry, now: time.Now}
}

// State returns the current state.
func (f *LoginFlow) State() LoginState {
	return f.state
}

// Email returns the address the flow is authenticating.
func (f *LoginFlow) Email() string {
	return f.email
}

// SubmitEmail requests a code and advances to code entry. A server conflict
// (code already outstanding) advances the flow the same way.
func (f *LoginFlow) SubmitEmail(ctx context.Context, email string) error {
	if f.state != StateEmailEntry {
		return ErrInvalidState
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}

	if err := f.client.RequestOTP(ctx, email); err != nil {
		return err
	}

	f.email = email
	f.state = StateOTPEntry
	f.lastSent = f.now()
	return nil
}

// SubmitCode verifies the entered code. On failure the flow stays on code
// entry; on success it is authenticated and the session is persisted.
func (f *LoginFlow) SubmitCode(ctx context.Context, code string) (*Session, error) {
	if f.state != StateOTPEntry {
		return nil, ErrInvalidState
	}

	session, err := f.client.VerifyOTP(ctx, f.email, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}

	f.state = StateAuthenticated
	return session, nil
}

// Resend requests a fresh code once the cooldown has elapsed and resets it.
func (f *LoginFlow) Resend(ctx context.Context) error {
	if f.state != StateOTPEntry {
		return ErrInvalidState
	}
	if f.CooldownRemaining() > 0 {
		return ErrResendCooldown
	}

	if err := f.client.ResendOTP(ctx, f.email); err != nil {
		return err
	}

	f.lastSent = f.now()
	return nil
}

// CooldownRemaining reports how long until resend is allowed again.
func (f *LoginFlow) CooldownRemaining() time.Duration {
	remaining := ResendCooldown - f.now().Sub(f.lastSent)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Back returns from code entry to email entry.
func (f *LoginFlow) Back() {
	if f.state == StateOTPEntry {
		f.state = StateEmailEntry
		f.email = ""
	}
}
