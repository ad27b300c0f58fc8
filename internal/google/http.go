package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// maxBody caps how much of an upstream response we buffer.
const maxBody = 1 << 20

// errBodyRead marks a 2xx answer whose body could not be read in full.
var errBodyRead = errors.New("read response body")

// doJSON sends body (nil for GET) with a bearer token and returns the raw response.
// Non-2xx answers are returned together with a *StatusError.
func doJSON(ctx context.Context, base *http.Client, token, method, url string, body any, logger *slog.Logger) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			logger.Error("google.http.encode_error", "req_id", reqID, "error", err)
			return nil, fmt.Errorf("encode json: %w", err)
		}
		rd = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// oauth2 adds "Authorization: Bearer <token>" on top of the base transport.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	logger.Info("google.http.request", "req_id", reqID, "method", method, "url", url)
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("google.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("google.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	logger.Info("google.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if readErr != nil {
		logger.Error("google.http.read_error", "req_id", reqID, "status", resp.StatusCode, "error", readErr)
	}

	if resp.StatusCode/100 != 2 {
		return raw, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if readErr != nil {
		return raw, fmt.Errorf("%w: %w", errBodyRead, readErr)
	}
	return raw, nil
}

// StatusError is a non-2xx answer from a Google endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google api status %d: %s", e.Code, truncate(e.Body, 512))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
