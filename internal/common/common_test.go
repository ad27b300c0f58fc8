package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundErrorf("scan %s", "x"), http.StatusNotFound},
		{"wrapped invalid", fmt.Errorf("decode: %w", ErrInvalidInput), http.StatusBadRequest},
		{"validation", NewValidator().Field("to", "", Required).Err(), http.StatusBadRequest},
		{"unauthorized", NewAppError("NO_SESSION", "sign in", ErrUnauthorized), http.StatusUnauthorized},
		{"upstream", WrapError(ErrUpstream, "gmail"), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "sign in", PublicMessage(fmt.Errorf("send: %w", NewAppError("NO_SESSION", "sign in", ErrUnauthorized))))
	assert.Equal(t, "internal error", PublicMessage(errors.New("sql: connection refused")))
	assert.Equal(t, "resource not found", PublicMessage(ErrNotFound))
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("email", "jane@acme.io9", Required, SingleLine).
		Field("method", "fax", OneOf("sent_manual", "sent_gmail")).
		Field("subject", "0123456789", MaxLength(5)).
		Field("note", "ok", MaxLength(5))

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	err := v.Err()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "method")
	assert.Contains(t, err.Error(), "subject")

	assert.NoError(t, NewValidator().Field("email", "", SingleLine).Err())
	assert.Error(t, NewValidator().Field("email", "a@b.co\r\nBcc: x@y.co", SingleLine).Err())
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ctx"))
	err := WrapError(ErrDatabase, "insert scan")
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, "insert scan: database error", err.Error())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "eng", cfg.OCR.Language)
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	err := cfg.Validate()
	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "CONFIG_ERROR", ae.Code)
}
