package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quorumworks/govscore/internal/event"
)

func testRef() event.ProposalRef {
	return event.ProposalRef{
		Network:      "polkadot",
		ProposalType: "referendum_v2",
		Index:        event.NewNumericIndex(7),
	}
}

func serveVotes(t *testing.T, timestamps ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Variables["voter"] == "" {
			t.Error("voter variable missing")
		}
		votes := make([]map[string]string, 0, len(timestamps))
		for _, ts := range timestamps {
			votes = append(votes, map[string]string{"timestamp": ts})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"votes": votes},
		})
	}))
}

func TestRemovalTimestamps(t *testing.T) {
	srv := serveVotes(t, "2025-03-01T12:00:00Z", "2025-03-01T19:30:00Z")
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	ts, err := c.RemovalTimestamps(context.Background(), testRef(), "addr")
	if err != nil {
		t.Fatal(err)
	}
	wantFirst := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	wantCurrent := time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)
	if !ts.FirstVoteAt.Equal(wantFirst) || !ts.CurrentVoteAt.Equal(wantCurrent) {
		t.Errorf("timestamps = %+v", ts)
	}
}

func TestVoteTimestampUsesLatest(t *testing.T) {
	srv := serveVotes(t, "2025-03-01T12:00:00Z", "2025-03-02T08:00:00Z")
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	got, err := c.VoteTimestamp(context.Background(), testRef(), "addr")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", got)
	}
}

func TestEmptyHistoryIsNotIndexed(t *testing.T) {
	srv := serveVotes(t)
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	_, err := c.RemovalTimestamps(context.Background(), testRef(), "addr")
	if !errors.Is(err, ErrNotIndexed) {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}
	_, err = c.VoteTimestamp(context.Background(), testRef(), "addr")
	if !errors.Is(err, ErrNotIndexed) {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}
}

func TestSingleVoteHistoryIsNotIndexed(t *testing.T) {
	// Only the original vote has been indexed; the removal-triggering vote
	// is still missing. Running the classifier with first == current would
	// skip the penalty, so the client must report incomplete facts.
	srv := serveVotes(t, "2025-03-01T12:00:00Z")
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	_, err := c.RemovalTimestamps(context.Background(), testRef(), "addr")
	if !errors.Is(err, ErrNotIndexed) {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}

	// The single row is still a complete answer for the vote case.
	got, err := c.VoteTimestamp(context.Background(), testRef(), "addr")
	if err != nil {
		t.Fatalf("VoteTimestamp: %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", got)
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"votes": []map[string]string{{"timestamp": "2025-03-01T12:00:00Z"}},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, MaxRetries: 3})
	if _, err := c.VoteTimestamp(context.Background(), testRef(), "addr"); err != nil {
		t.Fatalf("retried call failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
	}{
		{
			name: "graphql error",
			h: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"errors": []map[string]string{{"message": "unknown field"}},
				})
			},
		},
		{
			name: "not json",
			h: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>nope</html>"))
			},
		},
		{
			name: "client error status",
			h: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
		},
		{
			name: "vote with empty timestamp",
			h: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"data": map[string]interface{}{
						"votes": []map[string]string{{"timestamp": ""}},
					},
				})
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.h)
			defer srv.Close()

			c := New(Config{Endpoint: srv.URL, MaxRetries: 1})
			_, err := c.VoteTimestamp(context.Background(), testRef(), "addr")
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}
