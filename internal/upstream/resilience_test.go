package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig(client *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), fastConfig(srv.Client()), NewBreaker("test-retry"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(resp, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected success after 3 calls, got ok=%v calls=%d", body.OK, calls)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := Do(context.Background(), fastConfig(srv.Client()), NewBreaker("test-4xx"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusBadRequest || statusErr.Message != "API key not valid" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDecodeJSONWrapsParseErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), fastConfig(srv.Client()), NewBreaker("test-parse"), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v map[string]interface{}
	if err := DecodeJSON(resp, &v); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestExtractMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":{"message":"quota"}}`: "quota",
		`{"error":"message required"}`:  "message required",
		`{"message":"bad q"}`:           "bad q",
		`Service Unavailable`:           "Service Unavailable",
	}
	for in, want := range cases {
		if got := extractMessage([]byte(in)); got != want {
			t.Fatalf("extractMessage(%s) = %q, want %q", in, got, want)
		}
	}
}
