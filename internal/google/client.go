// Package google talks to the two Google REST endpoints the app needs: the
// OpenID userinfo endpoint and Gmail's messages.send. Token acquisition happens
// on the client; every call here takes an access token.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/email"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

var (
	// ErrNoToken is returned when a call is attempted without an access token.
	ErrNoToken = common.NewAppError("NO_GOOGLE_SESSION", "No Google Session found. Please log in settings.", common.ErrUnauthorized)
	// ErrSendFailed wraps any Gmail delivery failure.
	ErrSendFailed = fmt.Errorf("gmail send failed: %w", common.ErrUpstream)
)

type Config struct {
	UserInfoURL string        // default https://www.googleapis.com/oauth2/v3/userinfo
	GmailURL    string        // default https://gmail.googleapis.com/gmail/v1
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	}
	if cfg.GmailURL == "" {
		cfg.GmailURL = "https://gmail.googleapis.com/gmail/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// UserInfo resolves the profile behind an access token. AccessToken is copied
// into the result so it can be stored with the settings.
func (c *Client) UserInfo(ctx context.Context, token string) (entity.GoogleUser, error) {
	if token == "" {
		return entity.GoogleUser{}, ErrNoToken
	}
	raw, err := doJSON(ctx, c.http, token, http.MethodGet, c.cfg.UserInfoURL, nil, c.log)
	if err != nil {
		return entity.GoogleUser{}, classify(err, "userinfo")
	}
	var info struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return entity.GoogleUser{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return entity.GoogleUser{
		Name:        info.Name,
		Email:       info.Email,
		Picture:     info.Picture,
		AccessToken: token,
	}, nil
}

// SendMail delivers d to `to` from the token owner's mailbox and returns the
// Gmail message id.
func (c *Client) SendMail(ctx context.Context, token, to string, d entity.Draft) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	raw := email.EncodeRaw(email.BuildMIME(to, d))
	endpoint := strings.TrimRight(c.cfg.GmailURL, "/") + "/users/me/messages/send"

	resp, err := doJSON(ctx, c.http, token, http.MethodPost, endpoint, map[string]string{"raw": raw}, c.log)
	if errors.Is(err, errBodyRead) {
		// Gmail accepted the message; only the id is lost
		c.log.Warn("gmail.send.unreadable_reply", "to", to, "error", err)
		return "", nil
	}
	if err != nil {
		c.log.Error("gmail.send.failed", "to", to, "error", err)
		return "", classify(err, "gmail send")
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		c.log.Warn("gmail.send.decode_error", "error", err)
	}
	c.log.Info("gmail.send.ok", "to", to, "message_id", out.ID)
	return out.ID, nil
}

// classify maps transport and status failures onto the common error taxonomy.
func classify(err error, op string) error {
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		return common.NewAppError("GOOGLE_AUTH", "Google session expired. Please sign in again.", errors.Join(common.ErrUnauthorized, err))
	}
	if op == "gmail send" {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrUpstream, err)
}
