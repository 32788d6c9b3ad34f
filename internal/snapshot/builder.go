// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink/primitives"
)

var ErrDuplicateKey = errors.New("snapshot: duplicate keys aren't supported")

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger zerolog.Logger
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger zerolog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// Builder writes a new snapshot file.  Nothing appears at the destination
// path until Finalize succeeds.
type Builder struct {
	resultPath string
	dataFile   *os.File
	w          *writer
	entries    []indexEntry
	keys       map[primitives.Key]struct{}
	logger     zerolog.Logger
}

// NewBuilder creates a Builder that will produce a snapshot at path.
func NewBuilder(path string, opts ...BuilderOption) (*Builder, error) {
	options := builderOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	// we want to write to a new file and do an atomic rename when we're done on disk
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	dataFile, err := os.CreateTemp(dir, "ink-snapshot.*.tmp")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	w, err := newWriter(dataFile)
	if err != nil {
		_ = dataFile.Close()
		_ = os.Remove(dataFile.Name())
		return nil, fmt.Errorf("newWriter: %w", err)
	}
	return &Builder{
		resultPath: path,
		dataFile:   dataFile,
		w:          w,
		keys:       make(map[primitives.Key]struct{}),
		logger:     options.logger,
	}, nil
}

// Put adds a record.
func (b *Builder) Put(key primitives.Key, value []byte) error {
	if b.dataFile == nil {
		return errFinished
	}
	if _, dup := b.keys[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	off, err := b.w.Write(key, value)
	if err != nil {
		return err
	}
	b.keys[key] = struct{}{}
	b.entries = append(b.entries, indexEntry{key: key, off: off})
	return nil
}

// Len is the number of records put so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Finalize writes the index, moves the file into place read-only, and
// opens it.
func (b *Builder) Finalize() (*Table, error) {
	if b.dataFile == nil {
		return nil, errFinished
	}
	// we're done with this -- nil it so it can be GC'd earlier
	b.keys = nil

	start := time.Now()
	idx, err := buildIndex(b.entries)
	if err != nil {
		b.Abort()
		return nil, fmt.Errorf("buildIndex: %w", err)
	}
	b.logger.Debug().
		Int("records", len(b.entries)).
		Dur("elapsed", time.Since(start)).
		Msg("built index")

	if err := b.w.Finish(idx); err != nil {
		b.Abort()
		return nil, fmt.Errorf("writer.Finish: %w", err)
	}
	if err := b.dataFile.Sync(); err != nil {
		b.Abort()
		return nil, fmt.Errorf("f.Sync: %w", err)
	}
	tmpPath := b.dataFile.Name()
	if err := b.dataFile.Close(); err != nil {
		b.Abort()
		return nil, fmt.Errorf("f.Close: %w", err)
	}
	b.dataFile = nil

	// make the file read-only
	if err := os.Chmod(tmpPath, 0444); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(tmpPath, b.resultPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	b.logger.Info().Str("path", b.resultPath).Int("records", len(b.entries)).Msg("wrote snapshot")
	b.entries = nil

	return Open(b.resultPath)
}

// Abort discards the partially written file.  It is safe to call after
// Finalize.
func (b *Builder) Abort() {
	if b.dataFile == nil {
		return
	}
	name := b.dataFile.Name()
	_ = b.dataFile.Close()
	_ = os.Remove(name)
	b.dataFile = nil
}
