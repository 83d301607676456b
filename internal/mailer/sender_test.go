package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

func TestNew(t *testing.T) {
	base := func(provider string) *config.Config {
		return &config.Config{
			Contact: config.ContactConfig{Provider: provider, SendTimeout: 10 * time.Second},
			Resend:  config.ResendConfig{APIKey: "re_test"},
			SMTP:    config.SMTPConfig{Host: "smtp.example.com", Port: 587},
			SES:     config.SESConfig{Region: "eu-west-3", AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"},
		}
	}

	tests := []struct {
		provider string
		expected any
	}{
		{config.ProviderResend, &ResendSender{}},
		{config.ProviderSMTP, &SMTPSender{}},
		{config.ProviderSES, &SESSender{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			sender, err := New(context.Background(), base(tt.provider), zap.NewNop())
			require.NoError(t, err)
			assert.IsType(t, tt.expected, sender)
			assert.Equal(t, tt.provider, sender.Name())
		})
	}

	t.Run("Unknown provider", func(t *testing.T) {
		_, err := New(context.Background(), base("pigeon"), zap.NewNop())
		assert.Error(t, err)
	})
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ProviderError{Provider: "smtp", Err: cause}

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "smtp: connection refused", err.Error())

	status := &ProviderError{Provider: "resend", StatusCode: 403, Body: "forbidden"}
	assert.ErrorIs(t, status, domain.ErrUpstream)
	assert.Equal(t, "resend: status 403: forbidden", status.Error())
}
