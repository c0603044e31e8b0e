package backboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// stubAPI is a minimal Backboard endpoint: one assistant created on
// demand, memories accepted and counted.
type stubAPI struct {
	assistantCreates int64
	memoryWrites     int64
}

func (s *stubAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") == "" {
			http.Error(w, `{"error":"missing key"}`, http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/assistants":
			w.Write([]byte(`{"assistants":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/assistants":
			atomic.AddInt64(&s.assistantCreates, 1)
			w.Write([]byte(`{"assistant_id":"asst_1"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/assistants/asst_1/memories":
			atomic.AddInt64(&s.memoryWrites, 1)
			w.Write([]byte(`{}`))
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}
	})
}

func TestConcurrentAddResolvesOneAssistant(t *testing.T) {
	stub := &stubAPI{}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", APIBaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	// All writers miss the assistant cache at once. Only one create is
	// allowed; duplicates would split the memory feed across assistants.
	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Add(context.Background(), "g1", "204", "Preference: quiet floor")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Add %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&stub.assistantCreates); n != 1 {
		t.Errorf("assistant created %d times, want 1", n)
	}
	if n := atomic.LoadInt64(&stub.memoryWrites); n != writers {
		t.Errorf("recorded %d memories, want %d", n, writers)
	}
}

func TestAddRejectedWithoutAssistant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", APIBaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.Add(context.Background(), "g1", "204", "x"); err == nil {
		t.Error("Add should fail when no assistant can be resolved")
	}
}
