package contents

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config describes the repository and branch the client writes to.
type Config struct {
	BaseURL string
	Owner   string
	Repo    string
	Branch  string

	// Token is sent as a bearer credential. It is never logged.
	Token string

	Timeout time.Duration

	// FailureThreshold is the number of consecutive transport failures that
	// open the breaker. Zero means 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Zero means 30s.
	OpenTimeout time.Duration

	HTTPClient *http.Client
}

// File is a remote file and the token identifying its current version.
type File struct {
	Content []byte
	Token   string
}

// Client is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	log     logging.Logger
}

type response struct {
	status int
	body   []byte
}

// getResponse is both the contents and the git blob answer.
type getResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA  string `json:"sha"`
		Path string `json:"path"`
	} `json:"content"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// New builds a client. A nil logger discards output.
func New(cfg Config, log logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logging.Nop()
	}

	threshold := cfg.FailureThreshold
	c := &Client{cfg: cfg, http: hc, log: log}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "contents-api",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// HasToken reports whether a bearer credential is configured.
func (c *Client) HasToken() bool { return c.cfg.Token != "" }

func (c *Client) repoURL(rest string) string {
	return fmt.Sprintf("%s/repos/%s/%s/%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), rest)
}

func (c *Client) contentsURL(path string) string {
	return c.repoURL("contents/" + escapePath(path))
}

// fileURL is contentsURL pinned to the configured branch, for reads.
func (c *Client) fileURL(path string) string {
	u := c.contentsURL(path)
	if c.cfg.Branch != "" {
		u += "?ref=" + url.QueryEscape(c.cfg.Branch)
	}
	return u
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

// Get fetches path and its version token. A missing file is
// common.ErrNotFound.
//
// Files too large to be returned inline are read from the git blob named by
// the version token, so the content always belongs to that token.
func (c *Client) Get(ctx context.Context, path string) (File, error) {
	body, status, err := c.getJSON(ctx, "get", c.fileURL(path))
	if err != nil {
		return File{}, err
	}
	if body.Encoding == "none" {
		if body.SHA == "" {
			return File{}, &common.TransportError{Op: "get", Status: status, Message: "large file without version token"}
		}
		c.log.Debug(ctx, "contents not inlined, reading blob", "path", path, "version_token", ShortToken(body.SHA), "size", body.Size)
		blob, blobStatus, err := c.getJSON(ctx, "get blob", c.repoURL("git/blobs/"+url.PathEscape(body.SHA)))
		if errors.Is(err, common.ErrNotFound) {
			return File{}, &common.TransportError{Op: "get blob", Status: http.StatusNotFound, Message: "blob for existing file is missing"}
		}
		if err != nil {
			return File{}, err
		}
		body.Content, body.Encoding, status = blob.Content, blob.Encoding, blobStatus
	}

	content, err := decodeBody(body)
	if err != nil {
		return File{}, &common.TransportError{Op: "get", Status: status, Message: "malformed content", Err: err}
	}
	if body.Size > 0 && int64(len(content)) != body.Size {
		return File{}, &common.TransportError{Op: "get", Status: status,
			Message: fmt.Sprintf("content is %d bytes, expected %d", len(content), body.Size)}
	}

	c.log.Debug(ctx, "contents fetched", "path", path, "version_token", ShortToken(body.SHA), "bytes", len(content))
	return File{Content: content, Token: body.SHA}, nil
}

func (c *Client) getJSON(ctx context.Context, op, u string) (getResponse, int, error) {
	res, err := c.do(ctx, op, http.MethodGet, u, nil)
	if err != nil {
		return getResponse{}, 0, err
	}
	if err := classify(op, res, false); err != nil {
		return getResponse{}, res.status, err
	}
	var body getResponse
	if err := json.Unmarshal(res.body, &body); err != nil {
		return getResponse{}, res.status, &common.TransportError{Op: op, Status: res.status, Message: "malformed response", Err: err}
	}
	return body, res.status, nil
}

// Put writes content to path on the configured branch and returns the new
// version token.
//
// With an empty token the write creates the file. With a token the write
// succeeds only if the remote version still matches; otherwise it fails with
// common.ErrVersionConflict.
func (c *Client) Put(ctx context.Context, path string, content []byte, message, token string) (string, error) {
	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     token,
		Branch:  c.cfg.Branch,
	})
	if err != nil {
		return "", fmt.Errorf("encode put request: %w", err)
	}

	res, err := c.do(ctx, "put", http.MethodPut, c.contentsURL(path), payload)
	if err != nil {
		return "", err
	}
	if err := classify("put", res, token != ""); err != nil {
		return "", err
	}

	var body putResponse
	if err := json.Unmarshal(res.body, &body); err != nil {
		return "", &common.TransportError{Op: "put", Status: res.status, Message: "malformed response", Err: err}
	}

	c.log.Debug(ctx, "contents written", "path", path, "version_token", ShortToken(body.Content.SHA))
	return body.Content.SHA, nil
}

// do runs one request through the breaker. Only network failures and 5xx
// responses count against the breaker; 4xx answers are returned for
// classification.
func (c *Client) do(ctx context.Context, op, method, u string, payload []byte) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	requestID := uuid.NewString()

	res, err := c.breaker.Execute(func() (response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-Request-Id", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, err
		}
		r := response{status: resp.StatusCode, body: data}
		if resp.StatusCode >= 500 {
			return r, &common.TransportError{Op: op, Status: resp.StatusCode, Message: remoteMessage(data)}
		}
		return r, nil
	})
	if err == nil {
		return res, nil
	}

	var te *common.TransportError
	if errors.As(err, &te) {
		return response{}, err
	}
	c.log.Warn(ctx, "contents request failed", "op", op, "request_id", requestID, "error", err)
	return response{}, &common.TransportError{Op: op, Err: err}
}

// classify maps a non-2xx answer to the error taxonomy. conditional is set for
// writes that carried a version token: only those can lose a version race.
// A 422 on a create means the path is already taken, not that a token went
// stale.
func classify(op string, res response, conditional bool) error {
	msg := remoteMessage(res.body)
	switch {
	case res.status >= 200 && res.status < 300:
		return nil
	case res.status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case res.status == http.StatusUnauthorized, res.status == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", op, orStatus(msg, res.status), common.ErrUnauthorized)
	case op == "put" && (res.status == http.StatusConflict || res.status == http.StatusPreconditionFailed):
		return fmt.Errorf("%s: %s: %w", op, orStatus(msg, res.status), common.ErrVersionConflict)
	case op == "put" && res.status == http.StatusUnprocessableEntity && conditional:
		return fmt.Errorf("%s: %s: %w", op, orStatus(msg, res.status), common.ErrVersionConflict)
	default:
		return &common.TransportError{Op: op, Status: res.status, Message: msg}
	}
}

func remoteMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}

func orStatus(msg string, status int) string {
	if msg != "" {
		return msg
	}
	return http.StatusText(status)
}

// decodeBody decodes an inline or blob answer. Only base64 is accepted.
func decodeBody(body getResponse) ([]byte, error) {
	if body.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported encoding %q", body.Encoding)
	}
	return decodeContent(body.Content)
}

// decodeContent accepts base64 with embedded line breaks.
func decodeContent(s string) ([]byte, error) {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	return base64.StdEncoding.DecodeString(s)
}

// ShortToken abbreviates a version token for logs.
func ShortToken(t string) string {
	if len(t) > 8 {
		return t[:8]
	}
	return t
}
