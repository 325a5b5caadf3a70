package service

import "errors"

var (
	// ErrMongoURIMissing means no store connection string is configured.
	// It is fatal to an initialization attempt but never to the process.
	ErrMongoURIMissing = errors.New("MONGO_URI not configured")

	// ErrEmptyQuestion means the question was empty after trimming.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoBackend means every configured backend was tried and failed.
	ErrNoBackend = errors.New("no backend could answer the question")
)
