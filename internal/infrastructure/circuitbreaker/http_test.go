package circuitbreaker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func get(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestHTTPClient_OpensAfterServerErrors(t *testing.T) {
	// Arrange
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := zap.NewNop()
	manager := NewManager(Settings{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2}, log)
	client := NewHTTPClient("upstream", nil, manager, time.Second, log)

	// Act
	for i := 0; i < 2; i++ {
		resp, err := client.Do(context.Background(), get(srv.URL))
		if err != nil {
			t.Fatalf("call %d: expected response, got %v", i, err)
		}
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("call %d: expected 502, got %d", i, resp.StatusCode)
		}
	}
	_, err := client.Do(context.Background(), get(srv.URL))

	// Assert
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", calls)
	}
	if manager.Status()["upstream"].State != "open" {
		t.Errorf("expected status open, got %+v", manager.Status()["upstream"])
	}
}

func TestHTTPClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("nope"))
	}))
	defer srv.Close()

	log := zap.NewNop()
	client := NewHTTPClient("upstream", nil, NewManager(Settings{FailureThreshold: 1}, log), time.Second, log)

	for i := 0; i < 3; i++ {
		resp, err := client.Do(context.Background(), get(srv.URL))
		if err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
		if resp.OK() || string(resp.Body) != "nope" {
			t.Fatalf("unexpected response %+v", resp)
		}
	}
}

func TestHTTPClient_Deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	log := zap.NewNop()
	client := NewHTTPClient("slow", nil, NewManager(DefaultSettings(), log), 50*time.Millisecond, log)

	start := time.Now()
	_, err := client.Do(context.Background(), get(srv.URL))

	if err == nil {
		t.Fatal("expected deadline error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("deadline not applied, took %v", time.Since(start))
	}
}
