package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tillsync/internal/adapters/httpapi"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

func newClient(t *testing.T, handler http.HandlerFunc) *httpapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := httpapi.NewClient(httpapi.Options{
		BaseURL:    srv.URL + "/api",
		Token:      "tok",
		BusinessID: 12,
		OutletID:   3,
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClient_SendsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var body map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":5}}`))
	})

	env, err := c.Do(context.Background(), ports.Request{
		Method:         http.MethodPatch,
		Path:           "/v1/orders/5/status",
		Query:          url.Values{"x": {"1"}},
		Body:           map[string]string{"status": "ready"},
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.JSONEq(t, `{"id":5}`, string(env.Data))
	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/api/v1/orders/5/status", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("x"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "12", got.Header.Get("X-Business-Id"))
	assert.Equal(t, "3", got.Header.Get("X-Outlet-Id"))
	assert.Equal(t, "idem-1", got.Header.Get("Idempotency-Key"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "ready", body["status"])
}

func TestClient_BodiesWithoutEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `[{"id":1}]`},
		{name: "paginator", body: `{"data":[{"id":1}],"current_page":1,"last_page":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			env, err := c.Do(context.Background(), ports.Request{Path: "/v1/tables"})
			require.NoError(t, err)

			assert.True(t, env.Success)
			assert.JSONEq(t, tt.body, string(env.Data))
			assert.JSONEq(t, tt.body, string(env.Body))
		})
	}
}

func TestClient_RejectedEnvelope(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Shift already open"}`))
	})

	env, err := c.Do(context.Background(), ports.Request{Method: http.MethodPost, Path: "/v1/shifts/open"})

	require.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.Equal(t, domain.KindClient, domain.Classify(err))
	require.NotNil(t, env, "rejected envelopes are returned for inspection")
	assert.Equal(t, "Shift already open", env.Message)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.ErrorKind
	}{
		{status: http.StatusInternalServerError, kind: domain.KindServer},
		{status: http.StatusBadGateway, kind: domain.KindServer},
		{status: http.StatusTooManyRequests, kind: domain.KindRateLimited},
		{status: http.StatusUnprocessableEntity, kind: domain.KindClient},
		{status: http.StatusNotFound, kind: domain.KindClient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.Do(context.Background(), ports.Request{Path: "/v1/orders"})

			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.Classify(err))
			assert.Equal(t, tt.status, domain.StatusCode(err))
			assert.ErrorContains(t, err, "nope")
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newClient(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	_, err := c.Do(context.Background(), ports.Request{Path: "/v1/shifts/active", Timeout: 20 * time.Millisecond})

	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, domain.KindNetwork, domain.Classify(err))
}

func TestClient_CallerCancellation(t *testing.T) {
	c := newClient(t, func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Do(ctx, ports.Request{Path: "/v1/orders"})

	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, domain.KindCancelled, domain.Classify(err))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := httpapi.NewClient(httpapi.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), ports.Request{Path: "/v1/orders"})

	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, domain.Classify(err).Transient())
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.Do(context.Background(), ports.Request{Path: "/v1/orders"})

	require.ErrorIs(t, err, domain.ErrDecodeFailed)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := httpapi.NewClient(httpapi.Options{BaseURL: "not a url"})

	require.ErrorIs(t, err, domain.ErrConfigInvalid)
	assert.False(t, errors.Is(err, domain.ErrNetwork))
}
