// Package bitbucket provides the authenticated HTTP channel to a Bitbucket
// Server instance used to publish build statuses and pull request comments.
package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// maxBodySize bounds how much of a response body is kept for error reporting.
const maxBodySize = 1 << 20

var (
	ErrMissingBaseURL = errors.New("parameter base_url has to be given")
	ErrAuthConflict   = errors.New("only one authentication method can be given (token or auth)")
)

// Options configures a Client. Basic credentials and a bearer token are
// mutually exclusive.
type Options struct {
	BaseURL    string
	Username   string
	Password   string
	Token      string
	HTTPClient *http.Client
}

// Validate returns every configuration problem found in o.
func (o Options) Validate() []error {
	var errs []error
	if strings.TrimSpace(o.BaseURL) == "" {
		errs = append(errs, ErrMissingBaseURL)
	} else if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base_url %q", o.BaseURL))
	}
	if o.Token != "" && (o.Username != "" || o.Password != "") {
		errs = append(errs, ErrAuthConflict)
	}
	return errs
}

// Outcome is the result of a single delivery.
type Outcome struct {
	StatusCode int
	// Body is only captured for non-success responses.
	Body []byte
}

// OK reports whether the platform accepted the request.
func (o *Outcome) OK() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// ErrorMessage returns the human-readable message of a structured error body,
// or an empty string when the body carries none.
func (o *Outcome) ErrorMessage() string {
	return ErrorMessage(o.Body)
}

// Client posts JSON payloads to Bitbucket Server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient validates opts and builds a client with the configured authentication.
func NewClient(opts Options) (*Client, error) {
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	base := newTransport()
	var timeout time.Duration
	if opts.HTTPClient != nil {
		if opts.HTTPClient.Transport != nil {
			base = opts.HTTPClient.Transport
		}
		timeout = opts.HTTPClient.Timeout
	}

	transport := base
	switch {
	case opts.Token != "":
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   base,
		}
	case opts.Username != "" || opts.Password != "":
		transport = &basicAuthTransport{username: opts.Username, password: opts.Password, base: base}
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: timeout},
	}, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends payload as JSON to path. Exactly one request is made; a returned
// error means the request could not be performed at all.
func (c *Client) Post(ctx context.Context, path string, payload any) (*Outcome, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post to %s: %w", path, err)
	}
	defer resp.Body.Close()

	outcome := &Outcome{StatusCode: resp.StatusCode}
	if !outcome.OK() {
		outcome.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return outcome, nil
}

// ErrorMessage extracts the message of a Bitbucket error body. It understands
// the REST API shape {"errors":[{"message":...}]} and the OAuth style
// {"error_description":...}.
func ErrorMessage(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	var messages []string
	for _, e := range parsed.Errors {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
	}
	switch {
	case len(messages) > 0:
		return strings.Join(messages, "; ")
	case parsed.ErrorDescription != "":
		return parsed.ErrorDescription
	default:
		return parsed.Message
	}
}

type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(r)
}
