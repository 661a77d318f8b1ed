// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package fo4

import (
	"cmp"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// Hash is the FO4 name hash: CRCs of the stem and directory plus the
// extension packed as a four-character code.
type Hash struct {
	File uint32 `json:"file" yaml:"file"`
	Ext  uint32 `json:"ext" yaml:"ext"`
	Dir  uint32 `json:"dir" yaml:"dir"`
}

// Compare orders hashes by File, then Ext, then Dir.
func (h Hash) Compare(other Hash) int {
	return cmp.Or(
		cmp.Compare(h.File, other.File),
		cmp.Compare(h.Ext, other.Ext),
		cmp.Compare(h.Dir, other.Dir),
	)
}

// HashFile normalizes path and hashes it.
func HashFile(path string) (Hash, string) {
	name := bsa.NormalizePath(path)
	dir, file := bsa.SplitPath(name)
	stem, ext := bsa.SplitExt(file)
	if len(ext) > 0 {
		ext = ext[1:]
	}

	return Hash{
		File: nameCRC(stem),
		Ext:  bsa.FourCC(ext),
		Dir:  nameCRC(dir),
	}, name
}

// nameCRC is IEEE CRC-32 with a zero initial value and no final inversion.
func nameCRC(s string) uint32 {
	return ^crc32.Update(math.MaxUint32, crc32.IEEETable, []byte(s))
}

func readHash(r *binio.Reader) (Hash, error) {
	var (
		h   Hash
		err error
	)
	for _, field := range []*uint32{&h.File, &h.Ext, &h.Dir} {
		if *field, err = r.ReadUint32(); err != nil {
			return Hash{}, fmt.Errorf("hash: %w", err)
		}
	}

	return h, nil
}

func writeHash(w *binio.Writer, h Hash) {
	w.WriteUint32(h.File)
	w.WriteUint32(h.Ext)
	w.WriteUint32(h.Dir)
}
