// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// extractWorkItem stores one selected member with prepared output relative paths.
type extractWorkItem struct {
	relPath string
	relDir  string
	member  Member
}

// Extract writes selected members below dstDir, in parallel bounded by MaxWorkers.
// Names are sanitized unless RawNames is set; OnEntryDone sees the sanitized name.
// On failure it returns the first encountered error.
func Extract(ctx context.Context, dstDir string, members []Member, opts ExtractOptions) error {
	opts.applyDefaults()

	matcher, err := NewNameMatcher(opts.Include, opts.MatcherOptions)
	if err != nil {
		return err
	}

	selected := FilterMembers(members, matcher)
	if len(selected) == 0 {
		return nil
	}

	if !opts.RawNames {
		selected, err = sanitizeMemberNames(selected)
		if err != nil {
			return err
		}
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workItems, err := prepareExtractWorkItems(selected)
	if err != nil {
		return err
	}

	if err := prepareExtractDirs(dstRootAbs, workItems); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for _, task := range workItems {
		g.Go(func() error {
			return extractPreparedMember(gctx, dstRootAbs, task, opts)
		})
	}

	return g.Wait()
}

// prepareExtractWorkItems validates member names and prepares relative fs paths.
func prepareExtractWorkItems(members []Member) ([]extractWorkItem, error) {
	workItems := make([]extractWorkItem, 0, len(members))
	for _, member := range members {
		normalizedPath, err := normalizeExtractPath(member.Name)
		if err != nil {
			return nil, fmt.Errorf("normalize member path %s: %w", member.Name, err)
		}

		relPath := filepath.FromSlash(normalizedPath)
		relDir := filepath.Dir(relPath)
		if relDir == "." {
			relDir = ""
		}

		workItems = append(workItems, extractWorkItem{
			member:  member,
			relPath: relPath,
			relDir:  relDir,
		})
	}

	return workItems, nil
}

// prepareExtractDirs creates all unique parent directories needed by work items.
func prepareExtractDirs(dstRootAbs string, workItems []extractWorkItem) error {
	seen := make(map[string]struct{}, len(workItems))
	for _, task := range workItems {
		if task.relDir == "" {
			continue
		}

		dirPath := filepath.Join(dstRootAbs, task.relDir)
		if _, exists := seen[dirPath]; exists {
			continue
		}

		seen[dirPath] = struct{}{}
		if err := os.MkdirAll(dirPath, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", dirPath, err)
		}
	}

	return nil
}

// extractPreparedMember writes one prepared work item below the destination root.
func extractPreparedMember(ctx context.Context, dstRootAbs string, task extractWorkItem, opts ExtractOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	outPath := filepath.Join(dstRootAbs, task.relPath)
	if rel, err := filepath.Rel(dstRootAbs, outPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrExtractPathOutsideRoot, task.member.Name)
	}

	data, err := openMember(task.member)
	if err != nil {
		return err
	}

	file, err := openExtractFile(outPath, opts.FileMode)
	if err != nil {
		return fmt.Errorf("open %s: %w", task.member.Name, err)
	}

	written, writeErr := file.Write(data)
	runtime.KeepAlive(task.member.Open)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", task.member.Name, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", task.member.Name, closeErr)
	}

	opts.Logger.DebugContext(ctx, "extracted member",
		slog.String("name", task.member.Name),
		slog.String("path", outPath),
		slog.Int("size", written),
	)

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(task.member, int64(written), outPath)
	}

	return nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}

// normalizeExtractPath converts an archive name to a relative slash path and
// rejects absolute, drive-rooted and traversal inputs.
func normalizeExtractPath(name string) (string, error) {
	raw := strings.TrimSpace(name)
	if raw == "" || strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if len(raw) >= 2 && isASCIIAlpha(raw[0]) && raw[1] == ':' {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// isASCIIAlpha reports whether b is an ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
