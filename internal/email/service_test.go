package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/logging"
)

func newTestService(t *testing.T, resetValidity time.Duration) *Service {
	t.Helper()
	return NewService("smtp.example.com", "587", "noreply@example.com", "pass",
		"https://app.example.com", resetValidity, logging.NewLogger(true))
}

func TestNewService_KeepsInjectedLogger(t *testing.T) {
	logger := logging.NewLogger(false)
	svc := NewService("smtp.example.com", "587", "noreply@example.com", "pass",
		"https://app.example.com", 600*time.Second, logger)

	assert.Same(t, logger, svc.logger)
}

func TestRenderPasswordResetEmail_ContainsLinkAndValidity(t *testing.T) {
	svc := newTestService(t, 600*time.Second)

	body, err := svc.renderPasswordResetEmailTemplate("https://app.example.com/reset-password?token=abc")
	require.NoError(t, err)

	assert.Contains(t, body, "https://app.example.com/reset-password?token=abc")
	assert.Contains(t, body, "This link will expire in 10 minutes.")
}

func TestRenderPasswordResetEmail_ReflectsConfiguredValidity(t *testing.T) {
	svc := newTestService(t, 90*time.Second)

	body, err := svc.renderPasswordResetEmailTemplate("https://app.example.com/reset-password?token=abc")
	require.NoError(t, err)

	assert.Contains(t, body, "This link will expire in 90 seconds.")
}

func TestFormatValidity(t *testing.T) {
	cases := map[time.Duration]string{
		time.Minute:      "1 minute",
		10 * time.Minute: "10 minutes",
		2 * time.Hour:    "120 minutes",
		time.Second:      "1 second",
		90 * time.Second: "90 seconds",
	}

	for d, want := range cases {
		assert.Equal(t, want, formatValidity(d), d.String())
	}
}
