// Package indexer queries an external chain indexer for the vote facts
// the classifier needs. All calls are read-only and side-effect free, so
// they are retried freely; the engine never guesses a timestamp the
// indexer has not produced.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/quorumworks/govscore/internal/event"
)

var (
	// ErrNotIndexed: the indexer has not yet seen the vote(s) the caller
	// asked about. Retryable later, never fatal.
	ErrNotIndexed = errors.New("indexer: vote not yet indexed")
	// ErrMalformed: the indexer answered with something the client cannot
	// interpret. Not retryable.
	ErrMalformed = errors.New("indexer: malformed response")
)

// VoteTimestamps carries the two timestamps a removed-vote
// classification needs.
type VoteTimestamps struct {
	FirstVoteAt   time.Time
	CurrentVoteAt time.Time
}

// Config tunes the client's timeout and retry behavior.
type Config struct {
	Endpoint        string
	Timeout         time.Duration
	MaxRetries      int
	RetryMaxElapsed time.Duration
}

// Client is a GraphQL-over-HTTP client for a squid-style governance
// indexer.
type Client struct {
	endpoint        string
	maxRetries      int
	retryMaxElapsed time.Duration
	http            *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryMaxElapsed == 0 {
		cfg.RetryMaxElapsed = 30 * time.Second
	}
	return &Client{
		endpoint:        cfg.Endpoint,
		maxRetries:      cfg.MaxRetries,
		retryMaxElapsed: cfg.RetryMaxElapsed,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

const voteHistoryQuery = `
query voteHistory($network: String!, $voter: String!, $proposalType: String!, $proposalIndex: String!) {
  votes(
    where: {network_eq: $network, voter_eq: $voter, proposalType_eq: $proposalType, proposalIndex_eq: $proposalIndex}
    orderBy: timestamp_ASC
  ) {
    timestamp
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type voteHistoryResponse struct {
	Data struct {
		Votes []struct {
			Timestamp time.Time `json:"timestamp"`
		} `json:"votes"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// VoteTimestamp returns the business timestamp of the actor's current
// vote on the proposal.
func (c *Client) VoteTimestamp(ctx context.Context, ref event.ProposalRef, address string) (time.Time, error) {
	votes, err := c.voteHistory(ctx, ref, address)
	if err != nil {
		return time.Time{}, err
	}
	if len(votes) == 0 {
		return time.Time{}, fmt.Errorf("%w: no vote for %s by %s", ErrNotIndexed, ref, address)
	}
	return votes[len(votes)-1], nil
}

// RemovalTimestamps returns the actor's first vote on the proposal and
// the current (removal-triggering) vote. Both must be present.
func (c *Client) RemovalTimestamps(ctx context.Context, ref event.ProposalRef, address string) (VoteTimestamps, error) {
	votes, err := c.voteHistory(ctx, ref, address)
	if err != nil {
		return VoteTimestamps{}, err
	}
	// The removal-triggering vote is the latest history row. A single row
	// is only the original vote: the removal has not been indexed yet, so
	// the classification must wait rather than run with elapsed zero.
	if len(votes) < 2 {
		return VoteTimestamps{}, fmt.Errorf("%w: removal not yet indexed for %s by %s", ErrNotIndexed, ref, address)
	}
	return VoteTimestamps{
		FirstVoteAt:   votes[0],
		CurrentVoteAt: votes[len(votes)-1],
	}, nil
}

func (c *Client) voteHistory(ctx context.Context, ref event.ProposalRef, address string) ([]time.Time, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: voteHistoryQuery,
		Variables: map[string]interface{}{
			"network":       ref.Network,
			"voter":         address,
			"proposalType":  ref.ProposalType,
			"proposalIndex": ref.Index.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	// Transport failures and 5xx responses are retried in-client with
	// exponential backoff; anything else is handed straight back.
	resp, err := backoff.Retry(ctx, func() (*voteHistoryResponse, error) {
		return c.post(ctx, body)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithMaxElapsedTime(c.retryMaxElapsed),
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, resp.Errors[0].Message)
	}
	out := make([]time.Time, 0, len(resp.Data.Votes))
	for _, v := range resp.Data.Votes {
		if v.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: vote with empty timestamp", ErrMalformed)
		}
		out = append(out, v.Timestamp)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*voteHistoryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("indexer returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrMalformed, resp.StatusCode))
	}

	var parsed voteHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrMalformed, err))
	}
	return &parsed, nil
}
