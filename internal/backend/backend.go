// Package backend defines the answer-producing strategies the query
// service composes: the local inference daemon, the hosted completion
// API, the retrieval index, and the direct store search. The service
// iterates an ordered list of these and stops at the first success.
package backend

import (
	"context"
	"errors"
)

// Mode identifies which backend produced an answer.
type Mode string

const (
	// ModeLocal marks answers from the local inference daemon.
	ModeLocal Mode = "local"
	// ModeOnline marks answers from the hosted API or the retrieval index.
	ModeOnline Mode = "online"
	// ModeOffline marks answers from the direct store search.
	ModeOffline Mode = "offline"
	// ModeStandby marks the index-not-ready placeholder response.
	ModeStandby Mode = "standby"
)

// ErrIndexNotReady is returned by the retrieval backend when the index
// has not been built yet. The chain maps it to a standby response
// instead of falling through.
var ErrIndexNotReady = errors.New("retrieval index not ready")

// Answer is the result of a successful backend call.
type Answer struct {
	Text     string
	Mode     Mode
	Examples []map[string]any
}

// Backend answers a trimmed, non-empty question or reports an error.
type Backend interface {
	Name() string
	Answer(ctx context.Context, question string) (*Answer, error)
}
