package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/logging"
)

func newTestHandler(t *testing.T, fx *serviceFixture) *Handler {
	t.Helper()
	return NewHandler(fx.service, logging.NewLogger(true), false, 15*time.Minute, 7*24*time.Hour)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandler_ForgotPassword_UniformResponse(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	fx := newServiceFixture(t, u)
	handler := newTestHandler(t, fx)

	known := postJSON(t, handler.ForgotPassword, ForgotPasswordRequest{Email: "a@x.com"})
	unknown := postJSON(t, handler.ForgotPassword, ForgotPasswordRequest{Email: "nobody@x.com"})

	// The response must not reveal whether the account exists
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	// But only the real account got an email
	msg := fx.notifier.waitForEmail(t)
	assert.Equal(t, "a@x.com", msg.to)
}

func TestHandler_ResetPassword_ConfirmationMismatch(t *testing.T) {
	fx := newServiceFixture(t)
	handler := newTestHandler(t, fx)

	rec := postJSON(t, handler.ResetPassword, ResetPasswordRequest{
		Token:           "whatever",
		NewPassword:     "brand-new-pass",
		ConfirmPassword: "different-pass",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PASSWORD_MISMATCH")
}

func TestHandler_ResetPassword_InvalidToken(t *testing.T) {
	fx := newServiceFixture(t)
	handler := newTestHandler(t, fx)

	rec := postJSON(t, handler.ResetPassword, ResetPasswordRequest{
		Token:           "garbage",
		NewPassword:     "brand-new-pass",
		ConfirmPassword: "brand-new-pass",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_RESET_TOKEN")
}

func TestHandler_ResetPassword_HappyPath(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	fx := newServiceFixture(t, u)
	handler := newTestHandler(t, fx)

	rec := postJSON(t, handler.ForgotPassword, ForgotPasswordRequest{Email: "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	msg := fx.notifier.waitForEmail(t)

	rec = postJSON(t, handler.ResetPassword, ResetPasswordRequest{
		Token:           msg.token,
		NewPassword:     "brand-new-pass",
		ConfirmPassword: "brand-new-pass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Replaying the consumed token fails
	rec = postJSON(t, handler.ResetPassword, ResetPasswordRequest{
		Token:           msg.token,
		NewPassword:     "another-new-pass",
		ConfirmPassword: "another-new-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_RESET_TOKEN")
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	fx := newServiceFixture(t, u)
	handler := newTestHandler(t, fx)

	rec := postJSON(t, handler.Login, LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestHandler_Login_ReturnsTokensForAPIClients(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	fx := newServiceFixture(t, u)
	handler := newTestHandler(t, fx)

	rec := postJSON(t, handler.Login, LoginRequest{Email: "a@x.com", Password: "original-pass"})
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens AuthTokens
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestHandler_Login_SetsCookiesForBrowsers(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	fx := newServiceFixture(t, u)
	handler := newTestHandler(t, fx)

	payload, err := json.Marshal(LoginRequest{Email: "a@x.com", Password: "original-pass"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly, fmt.Sprintf("cookie %s must be HttpOnly", c.Name))
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")
}
