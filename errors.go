// Package rex implements the editing core of a terminal hex editor: a
// piece-table buffer layered over a read-only byte source, with undo/redo
// history, selection tracking, a clipboard, and an atomic save pipeline.
package rex

import "errors"

// Range errors
var (
	// ErrOutOfRange indicates an offset or length outside the document.
	ErrOutOfRange = errors.New("offset out of range")
)

// History errors
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Source and I/O errors
var (
	// ErrSourceUnavailable indicates the byte source failed after a
	// successful open (e.g. the file was removed externally).
	ErrSourceUnavailable = errors.New("byte source unavailable")

	// ErrSourceClosed indicates a read through a closed byte source.
	ErrSourceClosed = errors.New("byte source closed")
)

// Session errors
var (
	// ErrNoSelection indicates a range command with no active selection.
	ErrNoSelection = errors.New("no active selection")

	// ErrNoPath indicates a save with no associated file path.
	ErrNoPath = errors.New("no file path set")

	// ErrNotFound indicates a search with no match anywhere in the document.
	ErrNotFound = errors.New("not found")

	// ErrMultipleSources indicates a session was given both a path and
	// literal data to load.
	ErrMultipleSources = errors.New("multiple data sources provided")
)
