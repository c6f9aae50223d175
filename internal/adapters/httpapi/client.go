// Package httpapi talks to the POS backend over HTTP and normalizes every answer into a ports.Envelope.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultTimeout bounds a request that sets no timeout of its own.
	DefaultTimeout = 10 * time.Second

	headerBusiness    = "X-Business-Id"
	headerOutlet      = "X-Outlet-Id"
	headerIdempotency = "Idempotency-Key"

	maxBodySize = 8 << 20
)

// Options configure a Client.
type Options struct {
	BaseURL    string
	Token      string
	BusinessID int64
	OutletID   int64
	Timeout    time.Duration
	// HTTPClient replaces the default client, mainly in tests.
	HTTPClient *http.Client
}

// Client implements ports.Transport over net/http.
type Client struct {
	base       *url.URL
	token      string
	businessID string
	outletID   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the backend at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		cause := err
		if cause == nil {
			cause = errors.New("missing scheme or host")
		}
		return nil, domain.Tag(zerr.Wrap(errors.Join(domain.ErrConfigInvalid, cause), "parse base url"), "base_url", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		base:       base,
		token:      opts.Token,
		timeout:    timeout,
		httpClient: httpClient,
	}
	if opts.BusinessID > 0 {
		c.businessID = strconv.FormatInt(opts.BusinessID, 10)
	}
	if opts.OutletID > 0 {
		c.outletID = strconv.FormatInt(opts.OutletID, 10)
	}
	return c, nil
}

// Do performs req within its timeout. Transport failures are classified as ErrNetwork, ErrTimeout or
// ErrCancelled, non-2xx answers as *domain.ResponseError. A body reporting success=false is returned
// together with ErrRequestRejected so callers can still inspect it.
func (c *Client) Do(ctx context.Context, req ports.Request) (*ports.Envelope, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.newRequest(reqCtx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, req, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, req, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := domain.NewResponseError(resp.StatusCode, errorMessage(body))
		return nil, domain.Tag(zerr.Wrap(respErr, "backend request failed"), "path", req.Path)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, domain.Tag(err, "path", req.Path)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return env, domain.Tag(domain.Tag(domain.ErrRequestRejected, "message", msg), "path", req.Path)
	}
	return env, nil
}

func (c *Client) newRequest(ctx context.Context, req ports.Request) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, domain.Tag(zerr.Wrap(err, "encode request body"), "path", req.Path)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, domain.Tag(zerr.Wrap(errors.Join(domain.ErrClient, err), "build request"), "path", req.Path)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.businessID != "" {
		httpReq.Header.Set(headerBusiness, c.businessID)
	}
	if c.outletID != "" {
		httpReq.Header.Set(headerOutlet, c.outletID)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(headerIdempotency, req.IdempotencyKey)
	}
	return httpReq, nil
}

// transportError classifies a failure without a response. parent is the caller's context, reqCtx
// the one bounded by the request timeout.
func (c *Client) transportError(parent, reqCtx context.Context, req ports.Request, err error) error {
	var sentinel error
	switch {
	case parent.Err() != nil:
		sentinel = domain.ErrCancelled
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		sentinel = domain.ErrTimeout
	default:
		sentinel = domain.ErrNetwork
	}
	return domain.Tag(zerr.Wrap(errors.Join(sentinel, err), "backend unreachable"), "path", req.Path)
}
