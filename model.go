// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"log/slog"
	"runtime"

	"github.com/woozymasta/pathrules"
)

// Default tuning values.
const (
	DefaultWriteBuffer = 4 * 1024 * 1024
	minWriteBuffer     = 4096
)

// Member is a format-independent view of one stored file.
type Member struct {
	// Open returns the decompressed payload. Safe for concurrent use.
	// The returned bytes may borrow a mapped Source that Open keeps alive.
	Open func() ([]byte, error) `json:"-" yaml:"-"`
	// Name is the full archive path with '\' separators.
	Name string `json:"name" yaml:"name"`
	// StoredSize is the on-disk payload length.
	StoredSize int64 `json:"stored_size" yaml:"stored_size"`
	// Size is the decompressed payload length.
	Size int64 `json:"size" yaml:"size"`
	// Compressed reports whether any stored part is compressed.
	Compressed bool `json:"compressed,omitempty" yaml:"compressed,omitempty"`
}

// ReadOptions configures archive reads.
type ReadOptions struct {
	// Logger receives debug records about parsed structures. Nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// WriteOptions configures archive writes.
type WriteOptions struct {
	// Logger receives debug records about emitted structures. Nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// WriterBufferSize is the bufio size used by WriteFile.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// InventoryOptions configures BuildInventory.
type InventoryOptions struct {
	// Logger receives per-member debug records. Nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Include selects members by name; empty means all.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// MatcherOptions configures Include rule evaluation.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options" yaml:"matcher_options"`
	// MaxWorkers bounds parallel digesting (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Logger receives per-member debug records. Nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// OnEntryDone is called after one member is fully written to disk.
	OnEntryDone func(member Member, written int64, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Include selects members by name; empty means all.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// MatcherOptions configures Include rule evaluation.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options" yaml:"matcher_options"`
	// MaxWorkers is the number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables name sanitizing; unsafe names then fail with ErrInvalidExtractPath.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// ApplyDefaults fills zero-valued read options with defaults.
func (opts *ReadOptions) ApplyDefaults() {
	opts.Logger = loggerOrDiscard(opts.Logger)
}

// ApplyDefaults fills zero-valued write options with defaults.
func (opts *WriteOptions) ApplyDefaults() {
	opts.Logger = loggerOrDiscard(opts.Logger)
	if opts.WriterBufferSize < minWriteBuffer {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// applyDefaults fills zero-valued inventory options with defaults.
func (opts *InventoryOptions) applyDefaults() {
	opts.Logger = loggerOrDiscard(opts.Logger)
	opts.MaxWorkers = workerCount(opts.MaxWorkers)
	opts.MatcherOptions = matcherDefaults(opts.MatcherOptions)
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	opts.Logger = loggerOrDiscard(opts.Logger)
	opts.MaxWorkers = workerCount(opts.MaxWorkers)
	opts.MatcherOptions = matcherDefaults(opts.MatcherOptions)
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeTruncate
	}
}

// loggerOrDiscard returns l, or a logger that drops everything.
func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}

	return l
}

// workerCount resolves a non-positive worker count to GOMAXPROCS.
func workerCount(n int) int {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	return max(n, 1)
}

// matcherDefaults makes include rules case-insensitive and exclusive by default.
func matcherDefaults(opts pathrules.MatcherOptions) pathrules.MatcherOptions {
	if opts == (pathrules.MatcherOptions{}) {
		return pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionExclude
	}

	return opts
}
