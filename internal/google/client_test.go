package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{UserInfoURL: srv.URL + "/userinfo", GmailURL: srv.URL + "/gmail/v1"}, nil)
}

func TestUserInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userinfo", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"name":"Sam Lee","email":"sam@gmail.com","picture":"https://img/x.png","sub":"123"}`))
	})

	u, err := c.UserInfo(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, entity.GoogleUser{Name: "Sam Lee", Email: "sam@gmail.com", Picture: "https://img/x.png", AccessToken: "tok-1"}, u)
}

func TestUserInfo_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
	})

	_, err := c.UserInfo(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, common.HTTPStatus(err))
}

func TestSendMail(t *testing.T) {
	var got struct {
		Raw string `json:"raw"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		assert.Equal(t, "Bearer tok-2", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"msg-42","threadId":"t-1"}`))
	})

	id, err := c.SendMail(context.Background(), "tok-2", "jane@acme.com", entity.Draft{Subject: "Hello", Body: "Hi Jane"})
	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)

	assert.NotContains(t, got.Raw, "=")
	mime, err := base64.RawURLEncoding.DecodeString(got.Raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(mime), "To: jane@acme.com\n"))
	assert.True(t, strings.HasSuffix(string(mime), "\n\nHi Jane"))
}

func TestSendMail_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, http.StatusBadGateway},
		{"bad request", http.StatusBadRequest, http.StatusBadGateway},
		{"forbidden", http.StatusForbidden, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.SendMail(context.Background(), "tok", "a@b.co", entity.Draft{Subject: "s", Body: "b"})
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, common.HTTPStatus(err))
			if tt.wantStatus == http.StatusBadGateway {
				assert.ErrorIs(t, err, ErrSendFailed)
			}
		})
	}
}

func TestMissingToken(t *testing.T) {
	c := NewClient(Config{}, nil)

	_, err := c.SendMail(context.Background(), "", "a@b.co", entity.Draft{})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = c.UserInfo(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func truncatedReply(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Length", "64")
	_, _ = w.Write([]byte(`{"id":"msg`))
}

func TestTruncatedReply(t *testing.T) {
	c := newTestClient(t, truncatedReply)

	_, err := c.UserInfo(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBodyRead)
	assert.ErrorIs(t, err, common.ErrUpstream)

	id, err := c.SendMail(context.Background(), "tok", "a@b.co", entity.Draft{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Empty(t, id)
}
