package common

import "errors"

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")

	// ErrConfigRequired is returned when CommandDeps.Config is nil.
	ErrConfigRequired = errors.New("config is required")

	// ErrClientRequired is returned when CommandDeps.Client is nil.
	ErrClientRequired = errors.New("client is required")

	// ErrCollectionRequired is returned by commands that need a collection id.
	ErrCollectionRequired = errors.New("collection id is required (--collection or CRAWLER_COLLECTION_ID)")
)
