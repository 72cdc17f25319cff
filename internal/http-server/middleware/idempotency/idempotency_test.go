package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type memClaimer struct {
	seen map[string]bool
	err  error
}

func (m *memClaimer) Claim(_ context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memClaimer) Release(_ context.Context, key string) error {
	delete(m.seen, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	tests := []struct {
		name       string
		claimer    Claimer
		keys       []string
		wantStatus []int
		wantCalls  int
	}{
		{
			name:       "no header",
			claimer:    &memClaimer{seen: map[string]bool{}},
			keys:       []string{"", ""},
			wantStatus: []int{http.StatusCreated, http.StatusCreated},
			wantCalls:  2,
		},
		{
			name:       "repeated key rejected",
			claimer:    &memClaimer{seen: map[string]bool{}},
			keys:       []string{"abc", "abc", "def"},
			wantStatus: []int{http.StatusCreated, http.StatusConflict, http.StatusCreated},
			wantCalls:  2,
		},
		{
			name:       "store error passes through",
			claimer:    &memClaimer{err: errors.New("redis down")},
			keys:       []string{"abc", "abc"},
			wantStatus: []int{http.StatusCreated, http.StatusCreated},
			wantCalls:  2,
		},
		{
			name:       "disabled",
			claimer:    nil,
			keys:       []string{"abc", "abc"},
			wantStatus: []int{http.StatusCreated, http.StatusCreated},
			wantCalls:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			h := New(log, tt.claimer)(next)
			for i, key := range tt.keys {
				req := httptest.NewRequest(http.MethodPost, "/myob/sales-order", nil)
				if key != "" {
					req.Header.Set(Header, key)
				}
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, req)
				if rr.Code != tt.wantStatus[i] {
					t.Errorf("request %d: status = %d, want %d", i, rr.Code, tt.wantStatus[i])
				}
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestIdempotency_RetryAfterFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	statuses := []int{http.StatusBadGateway, http.StatusCreated, http.StatusCreated}
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	})
	h := New(log, &memClaimer{seen: map[string]bool{}})(next)

	want := []int{http.StatusBadGateway, http.StatusCreated, http.StatusConflict}
	for i, status := range want {
		req := httptest.NewRequest(http.MethodPost, "/myob/sales-order", nil)
		req.Header.Set(Header, "k1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != status {
			t.Errorf("attempt %d: status = %d, want %d", i+1, rr.Code, status)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
