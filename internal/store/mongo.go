// Package store wraps the MongoDB document collection behind the two
// narrow capabilities the query service needs: loading the full
// collection for index construction, and a direct case-insensitive
// text search used by the offline fallback.
package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/systemstock/queryd/internal/index"
	"github.com/systemstock/queryd/internal/log"
)

// ConnectivityError marks store or transport failures so callers can
// degrade to the next fallback instead of surfacing a hard error.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("mongo %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Config holds the store connection settings.
type Config struct {
	URI         string
	Database    string
	Collection  string
	SearchField string
	PingTimeout time.Duration
}

// Store is a MongoDB-backed document store.
type Store struct {
	cfg    Config
	logger log.Logger

	mu     sync.Mutex
	client *mongo.Client
}

// New creates a Store. No connection is made until Connect.
func New(cfg Config, logger log.Logger) *Store {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 8 * time.Second
	}
	if cfg.SearchField == "" {
		cfg.SearchField = "name"
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Store{cfg: cfg, logger: logger}
}

// Connect dials the store and verifies connectivity with a ping. It is
// idempotent: an existing healthy connection is kept, a broken one is
// replaced.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Store) connectLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	defer cancel()

	if s.client != nil {
		if err := s.client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		_ = s.client.Disconnect(context.Background())
		s.client = nil
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(s.cfg.URI).
		SetServerSelectionTimeout(s.cfg.PingTimeout))
	if err != nil {
		return &ConnectivityError{Op: "connect", Err: err}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return &ConnectivityError{Op: "ping", Err: err}
	}

	s.client = client
	s.logger.Info("mongo connection OK (%s.%s)", s.cfg.Database, s.cfg.Collection)
	return nil
}

// ensureConnected lazily connects on first use of a capability.
func (s *Store) ensureConnected(ctx context.Context) (*mongo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		if err := s.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	return s.client.Database(s.cfg.Database).Collection(s.cfg.Collection), nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	return err
}

// LoadDocuments loads every document in the collection and converts it
// to the index's native representation. Internal identifiers are never
// included. Documents that resist the structured conversion fall back
// to a raw JSON rendering rather than failing the whole load.
func (s *Store) LoadDocuments(ctx context.Context) ([]index.Document, error) {
	coll, err := s.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, &ConnectivityError{Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	var docs []index.Document
	for i := 0; cur.Next(ctx); i++ {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, &ConnectivityError{Op: "decode", Err: err}
		}
		docs = append(docs, index.Document{
			ID:       fmt.Sprintf("doc_%d", i),
			Content:  renderDocument(raw, s.cfg.SearchField),
			Metadata: map[string]any{"source": fmt.Sprintf("%s.%s", s.cfg.Database, s.cfg.Collection)},
		})
	}
	if err := cur.Err(); err != nil {
		return nil, &ConnectivityError{Op: "cursor", Err: err}
	}

	s.logger.Info("%d documents loaded from %s.%s", len(docs), s.cfg.Database, s.cfg.Collection)
	return docs, nil
}

// SearchResult reports the outcome of a direct store search.
type SearchResult struct {
	Count    int64
	Examples []map[string]any
}

const maxSearchExamples = 3

// Search performs a case-insensitive substring match of the question
// against the configured text field, excluding internal identifiers
// from the returned examples.
func (s *Store) Search(ctx context.Context, question string) (*SearchResult, error) {
	coll, err := s.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{s.cfg.SearchField: primitive.Regex{
		Pattern: regexp.QuoteMeta(question),
		Options: "i",
	}}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, &ConnectivityError{Op: "count", Err: err}
	}

	result := &SearchResult{Count: count, Examples: []map[string]any{}}
	if count == 0 {
		return result, nil
	}

	cur, err := coll.Find(ctx, filter, options.Find().
		SetLimit(maxSearchExamples).
		SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, &ConnectivityError{Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, &ConnectivityError{Op: "decode", Err: err}
		}
		result.Examples = append(result.Examples, map[string]any(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, &ConnectivityError{Op: "cursor", Err: err}
	}

	return result, nil
}
