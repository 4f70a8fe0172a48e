package client

import (
	"context"
	"errors"
	"net/http"
)

// RequestOTP asks the server to email a login code. A conflict response
// means a code is already outstanding for this email; that advances the
// flow just like a fresh send, so it is not reported as an error.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	err := c.doPublic(ctx, http.MethodPost, "/api/auth/request-otp",
		map[string]string{"email": email}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil
		}
		return err
	}
	return nil
}

// ResendOTP re-issues a fresh code, invalidating any earlier one.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.doPublic(ctx, http.MethodPost, "/api/auth/resend-otp",
		map[string]string{"email": email}, nil)
}

// VerifyOTP submits the code. On success the full session (profile plus
// token pair) is persisted before this returns, so a caller observing a nil
// error can immediately navigate to protected content.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	var resp struct {
		Success      bool   `json:"success"`
		User         User   `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"email": email, "otp": code}, &resp); err != nil {
		return nil, err
	}

	session := &Session{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if err := c.store.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout revokes the refresh token server-side on a best-effort basis and
// always purges the local store: after Logout returns, no token or profile
// data is retrievable and the next protected call short-circuits.
func (c *Client) Logout(ctx context.Context) error {
	session, err := c.store.Load()
	if err == nil && session != nil {
		_ = c.doPublic(ctx, http.MethodPost, "/api/auth/logout",
			map[string]string{"refreshToken": session.RefreshToken}, nil)
	}
	return c.store.Clear()
}
