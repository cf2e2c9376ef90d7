package server

import "errors"

var (
	// ErrSearcherRequired indicates a nil searcher was passed to NewServer.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrOpenerRequired indicates a nil opener was passed to NewServer.
	ErrOpenerRequired = errors.New("opener is required")

	// ErrSettingsRequired indicates a nil settings store was passed to NewServer.
	ErrSettingsRequired = errors.New("settings store is required")
)
