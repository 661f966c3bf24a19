package api

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/surveyops/surveyctl/internal/models"
)

// CheckAuth reports whether the ambient session cookie is currently valid.
// A 401/403 answer is a definitive "no" and returns (false, nil); every other
// failure is returned as an error.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/admin/check-auth", nil, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "check auth"); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}

	var env models.Envelope
	if err := decode(resp, "check auth", &env); err != nil {
		return false, err
	}
	return env.Success, nil
}

// Login exchanges credentials for a session cookie, which the transport
// stores and persists. It returns the backend's acknowledgement message.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/admin/login", nil, models.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "login"); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.StatusCode == nethttp.StatusBadRequest ||
			se.StatusCode == nethttp.StatusUnauthorized || se.StatusCode == nethttp.StatusForbidden) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	var env models.Envelope
	if err := decode(resp, "login", &env); err != nil {
		return "", err
	}
	if !env.Success {
		return "", ErrInvalidCredentials
	}

	c.saveSession()
	return env.Message, nil
}

// Logout invalidates the session on the backend. The local cookie is
// whatever the backend leaves behind; callers that must forget the session
// regardless of the outcome also call ClearSession.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/admin/logout", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "logout"); err != nil {
		return err
	}
	c.saveSession()
	return nil
}
