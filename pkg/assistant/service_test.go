package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "astrobot-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(filepath.Join(dir, "test.log"), 1, 1, 1, false, "single", "error")
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type fakeBinder struct {
	stored string
	calls  int
}

func (f *fakeBinder) BindThread(ctx context.Context, externalID int64, threadID string) (string, error) {
	f.calls++
	if f.stored == "" {
		f.stored = threadID
	}
	return f.stored, nil
}

func newTestService(t *testing.T, handler http.Handler) (*Service, *fakeBinder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	binder := &fakeBinder{}
	client := NewClient("test-key", server.URL, 5*time.Second, 0)
	svc := NewService(client, binder, "asst_free", "asst_pro", 300*time.Millisecond, 5*time.Millisecond)
	return svc, binder
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestAskCreatesRunAndReturnsAnswer(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/th1/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, RunList{})
			return
		}
		writeJSON(w, Run{ID: "run1", Status: StatusQueued})
	})
	mux.HandleFunc("/v1/threads/th1/runs/run1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			writeJSON(w, Run{ID: "run1", Status: StatusInProgress})
			return
		}
		writeJSON(w, Run{ID: "run1", Status: StatusCompleted})
	})
	mux.HandleFunc("/v1/threads/th1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "Сегодня") {
				t.Errorf("expected the date prefix in the message, got %q", body)
			}
			writeJSON(w, map[string]string{"id": "msg1"})
			return
		}
		writeJSON(w, MessageList{Data: []ThreadMessage{{
			Role: "assistant",
			Content: []MessageContent{{
				Type: "text",
				Text: &struct {
					Value string `json:"value"`
				}{Value: "Mars favors action today."},
			}},
		}}})
	})

	svc, _ := newTestService(t, mux)

	tid := "th1"
	text, elapsedMs, err := svc.Ask(context.Background(), 42, &tid, false, "What about today?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if text != "Mars favors action today." {
		t.Errorf("unexpected answer: %q", text)
	}
	if elapsedMs < 0 {
		t.Errorf("elapsed must be non-negative, got %d", elapsedMs)
	}
	if atomic.LoadInt32(&polls) < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls)
	}
}

func TestAskWaitsExistingActiveRun(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/th2/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("a new run must not be created while one is active")
		}
		writeJSON(w, RunList{Data: []Run{{ID: "run9", Status: StatusInProgress}}})
	})
	mux.HandleFunc("/v1/threads/th2/runs/run9", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			writeJSON(w, Run{ID: "run9", Status: StatusInProgress})
			return
		}
		writeJSON(w, Run{ID: "run9", Status: StatusCompleted})
	})
	mux.HandleFunc("/v1/threads/th2/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("no message must be appended while a run is active")
			return
		}
		writeJSON(w, MessageList{Data: []ThreadMessage{{
			Role: "assistant",
			Content: []MessageContent{{
				Type: "text",
				Text: &struct {
					Value string `json:"value"`
				}{Value: "Previous answer."},
			}},
		}}})
	})

	svc, _ := newTestService(t, mux)

	tid := "th2"
	text, _, err := svc.Ask(context.Background(), 7, &tid, false, "again")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if text != "Previous answer." {
		t.Errorf("unexpected answer: %q", text)
	}
}

func TestAskReturnsStoredAnswerAfterCompletedRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/th3/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("the completed answer must be reused, not re-run")
		}
		writeJSON(w, RunList{Data: []Run{{ID: "run5", Status: StatusCompleted}}})
	})
	mux.HandleFunc("/v1/threads/th3/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageList{Data: []ThreadMessage{{
			Role: "assistant",
			Content: []MessageContent{{
				Type: "text",
				Text: &struct {
					Value string `json:"value"`
				}{Value: "Answer from before the timeout."},
			}},
		}}})
	})

	svc, _ := newTestService(t, mux)

	tid := "th3"
	text, _, err := svc.Ask(context.Background(), 7, &tid, false, "retry")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if text != "Answer from before the timeout." {
		t.Errorf("unexpected answer: %q", text)
	}
}

func TestAskRunWaitTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/th4/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, RunList{})
			return
		}
		writeJSON(w, Run{ID: "run7", Status: StatusQueued})
	})
	mux.HandleFunc("/v1/threads/th4/runs/run7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Run{ID: "run7", Status: StatusInProgress})
	})
	mux.HandleFunc("/v1/threads/th4/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": "msg1"})
	})

	svc, _ := newTestService(t, mux)

	tid := "th4"
	_, elapsedMs, err := svc.Ask(context.Background(), 7, &tid, false, "slow one")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var timeoutErr *RunTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *RunTimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.RunID != "run7" || timeoutErr.ThreadID != "th4" {
		t.Errorf("timeout error carries wrong ids: %+v", timeoutErr)
	}
	if elapsedMs <= 0 {
		t.Errorf("elapsed must reflect the wait, got %d", elapsedMs)
	}
}

func TestAskBindsNewThreadOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Thread{ID: "th-new"})
	})
	mux.HandleFunc("/v1/threads/th-new/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, RunList{})
			return
		}
		writeJSON(w, Run{ID: "run1", Status: StatusCompleted})
	})
	mux.HandleFunc("/v1/threads/th-new/runs/run1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Run{ID: "run1", Status: StatusCompleted})
	})
	mux.HandleFunc("/v1/threads/th-new/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, map[string]string{"id": "msg1"})
			return
		}
		writeJSON(w, MessageList{Data: []ThreadMessage{{
			Role: "assistant",
			Content: []MessageContent{{
				Type: "text",
				Text: &struct {
					Value string `json:"value"`
				}{Value: "ok"},
			}},
		}}})
	})

	svc, binder := newTestService(t, mux)

	if _, _, err := svc.Ask(context.Background(), 11, nil, false, "first contact"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if binder.calls != 1 {
		t.Errorf("expected one bind call, got %d", binder.calls)
	}
	if binder.stored != "th-new" {
		t.Errorf("expected th-new to be bound, got %q", binder.stored)
	}
}
