package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGet_DecodesJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","devices_count":2}`))
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	resp, err := client.Get(context.Background(), "/health")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	body, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map", resp.Data)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if resp.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

func TestPost_SendsBodyAndToken(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	client.SetToken("abc123")

	resp, err := client.Post(context.Background(), "/api/v1/devices/", map[string]string{"device_id": "d1"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, want Bearer abc123", gotAuth)
	}
	if gotBody["device_id"] != "d1" {
		t.Errorf("body device_id = %v, want d1", gotBody["device_id"])
	}
}

func TestRetry_On5xx(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	resp, err := client.Get(context.Background(), "/flaky")
	if err != nil {
		t.Fatalf("Get() error = %v, want success after retries", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}

	metrics := client.GetMetrics()
	if metrics.RequestsFailed != 2 {
		t.Errorf("RequestsFailed = %d, want 2", metrics.RequestsFailed)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	_, err := client.Get(context.Background(), "/down")
	if err == nil {
		t.Fatal("Get() returned nil error for a persistently failing server")
	}
	if got := calls.Load(); got != maxAttempts {
		t.Errorf("server saw %d calls, want %d", got, maxAttempts)
	}
}

func TestNoRetry_On4xx(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	resp, err := client.Get(context.Background(), "/missing")
	if err != nil {
		t.Fatalf("Get() error = %v, 4xx is a valid response", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 4xx)", got)
	}
}

func TestAuthenticate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "issued-token",
			"role":  "admin",
		})
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	role, err := client.Authenticate(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if role != "admin" {
		t.Errorf("role = %q, want admin", role)
	}

	// Subsequent requests carry the issued token.
	var gotAuth string
	ts2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	t.Cleanup(ts2.Close)

	client.baseURL = ts2.URL
	if _, err := client.Get(context.Background(), "/anything"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotAuth != "Bearer issued-token" {
		t.Errorf("Authorization = %q, want Bearer issued-token", gotAuth)
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	if _, err := client.Authenticate(context.Background(), "", ""); err == nil {
		t.Error("Authenticate() returned nil error for rejected credentials")
	}
}

func TestGetMetrics_Averages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
	}))
	t.Cleanup(ts.Close)

	client := New(ts.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/"); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}

	metrics := client.GetMetrics()
	if metrics.RequestsSent != 3 {
		t.Errorf("RequestsSent = %d, want 3", metrics.RequestsSent)
	}
	if metrics.RequestsFailed != 0 {
		t.Errorf("RequestsFailed = %d, want 0", metrics.RequestsFailed)
	}
	if metrics.AvgResponseTime < 10*time.Millisecond {
		t.Errorf("AvgResponseTime = %v, want >= 10ms", metrics.AvgResponseTime)
	}
}

func TestContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(ts.URL)
	if _, err := client.Get(ctx, "/"); err == nil {
		t.Error("Get() with cancelled context returned nil error")
	}
}
