// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/bsa

package tes4

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bsa"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 52536
)

var (
	// benchHashSink prevents compiler elimination in hash benchmark loops.
	benchHashSink uint64
)

func BenchmarkReadFile(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, false)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var a Archive
		if _, err := a.ReadFile(path, bsa.ReadOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadLargeIndex(b *testing.B) {
	path := createBenchArchive(b, benchLargeIndexEntries, false)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var a Archive
		if _, err := a.ReadFile(path, bsa.ReadOptions{}); err != nil {
			b.Fatal(err)
		}

		if a.Empty() {
			b.Fatal("empty archive")
		}
	}
}

func BenchmarkWrite(b *testing.B) {
	benchmarkWrite(b, false)
}

func BenchmarkWriteCompressed(b *testing.B) {
	benchmarkWrite(b, true)
}

func benchmarkWrite(b *testing.B, compress bool) {
	a := buildBenchArchive(b, benchDefaultEntries, compress)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := a.Write(io.Discard, VersionSSE, bsa.WriteOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	benchmarkExtract(b, true)
}

func BenchmarkExtractSanitize(b *testing.B) {
	benchmarkExtract(b, false)
}

func benchmarkExtract(b *testing.B, rawNames bool) {
	path := createBenchArchive(b, benchDefaultEntries, true)

	var a Archive
	v, err := a.ReadFile(path, bsa.ReadOptions{})
	if err != nil {
		b.Fatal(err)
	}
	members := a.Members(v)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst := b.TempDir()
		if err := bsa.Extract(context.Background(), dst, members, bsa.ExtractOptions{RawNames: rawNames}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHashFile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h, _ := HashFile(`textures\architecture\windhelm\whwallstone01_n.dds`)
		benchHashSink += h.Numeric()
	}
}

// buildBenchArchive spreads numEntries files over 64 directories.
func buildBenchArchive(b *testing.B, numEntries int, compress bool) *Archive {
	b.Helper()

	a := &Archive{Flags: FlagDirectoryStrings | FlagFileStrings}
	payload := bytes.Repeat([]byte("benchmark-data-"), 64)
	for i := range numEntries {
		file, err := a.Add(fmt.Sprintf(`data\dir_%02d\file_%06d.bin`, i%64, i), payload)
		if err != nil {
			b.Fatal(err)
		}

		if compress {
			if err := file.Compress(CodecFor(VersionSSE)); err != nil {
				b.Fatal(err)
			}
		}
	}
	if compress {
		a.Flags |= FlagCompressed
	}

	return a
}

// createBenchArchive writes a benchmark archive to a temp file.
func createBenchArchive(b *testing.B, numEntries int, compress bool) string {
	b.Helper()

	path := filepath.Join(b.TempDir(), "bench.bsa")
	if err := buildBenchArchive(b, numEntries, compress).WriteFile(path, VersionSSE, bsa.WriteOptions{}); err != nil {
		b.Fatal(err)
	}

	return path
}
