// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package fo4

import (
	"fmt"
	"math"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/binio"
)

// Format is the archive content tag stored in the header.
type Format uint32

// Archive content tags.
const (
	// FormatGeneral ("GNRL") stores arbitrary files as single chunks.
	FormatGeneral Format = 'G' | 'N'<<8 | 'R'<<16 | 'L'<<24
	// FormatDirectX ("DX10") stores textures split into mip chunks.
	FormatDirectX Format = 'D' | 'X'<<8 | '1'<<16 | '0'<<24
)

// Valid reports whether f is a known tag.
func (f Format) Valid() bool {
	return f == FormatGeneral || f == FormatDirectX
}

// String returns the four-character tag.
func (f Format) String() string {
	switch f {
	case FormatGeneral:
		return "GNRL"
	case FormatDirectX:
		return "DX10"
	default:
		return fmt.Sprintf("Format(0x%08X)", uint32(f))
	}
}

// Layout constants.
const (
	chunkSentinel uint32 = 0xBAADF00D

	recordHeaderSizeGeneral = 0x10
	recordHeaderSizeDirectX = 0x18
	chunkSizeGeneral        = 0x14
	chunkSizeDirectX        = 0x18

	// MaxChunks is the chunk count limit of one file record.
	MaxChunks = math.MaxUint8
)

// layout returns the per-record and per-chunk sizes of f.
func (f Format) layout() (record, chunk int, err error) {
	switch f {
	case FormatGeneral:
		return recordHeaderSizeGeneral, chunkSizeGeneral, nil
	case FormatDirectX:
		return recordHeaderSizeDirectX, chunkSizeDirectX, nil
	default:
		return 0, 0, fmt.Errorf("%w: format 0x%08X", bsa.ErrMalformedHeader, uint32(f))
	}
}

// Mips is the inclusive mip range a texture chunk covers.
type Mips struct {
	First uint16 `json:"first" yaml:"first"`
	Last  uint16 `json:"last" yaml:"last"`
}

// Chunk is one stored sub-payload of a file.
type Chunk struct {
	bsa.CompressedBuffer

	// Mips is stored only in DX10 archives.
	Mips Mips `json:"mips" yaml:"mips"`
}

// Clear resets the chunk to an empty uncompressed View.
func (c *Chunk) Clear() {
	c.CompressedBuffer.Clear()
	c.Mips = Mips{}
}

// TextureHeader describes the texture of a DX10 file record.
type TextureHeader struct {
	Height   uint16 `json:"height" yaml:"height"`
	Width    uint16 `json:"width" yaml:"width"`
	MipCount uint8  `json:"mip_count" yaml:"mip_count"`
	Format   uint8  `json:"format" yaml:"format"`
	Flags    uint8  `json:"flags" yaml:"flags"`
	TileMode uint8  `json:"tile_mode" yaml:"tile_mode"`
}

// File is an ordered list of chunks plus texture metadata.
type File struct {
	Chunks []Chunk `json:"chunks" yaml:"chunks"`
	// Header is stored only in DX10 archives.
	Header TextureHeader `json:"header" yaml:"header"`
}

// AddChunk appends an Owned uncompressed chunk and returns it.
func (f *File) AddChunk(data []byte, mips Mips) *Chunk {
	f.Chunks = append(f.Chunks, Chunk{Mips: mips})
	c := &f.Chunks[len(f.Chunks)-1]
	c.SetOwned(data)
	return c
}

// Clear drops every chunk and resets the header.
func (f *File) Clear() {
	f.Chunks = f.Chunks[:0]
	f.Header = TextureHeader{}
}

// Empty reports whether the file has no chunks.
func (f *File) Empty() bool { return len(f.Chunks) == 0 }

// Len returns the chunk count.
func (f *File) Len() int { return len(f.Chunks) }

// StoredSize returns the summed stored length of every chunk.
func (f *File) StoredSize() int64 {
	var n int64
	for i := range f.Chunks {
		n += int64(f.Chunks[i].Len())
	}

	return n
}

// PayloadSize returns the summed decompressed length of every chunk.
func (f *File) PayloadSize() int64 {
	var n int64
	for i := range f.Chunks {
		n += int64(f.Chunks[i].PayloadLen())
	}

	return n
}

// Compressed reports whether any chunk is stored compressed.
func (f *File) Compressed() bool {
	for i := range f.Chunks {
		if f.Chunks[i].Compressed() {
			return true
		}
	}

	return false
}

// Compress compresses every chunk with codec.
func (f *File) Compress(codec bsa.Codec) error {
	for i := range f.Chunks {
		if err := f.Chunks[i].Compress(codec); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	return nil
}

// Decompress decompresses every chunk with codec.
func (f *File) Decompress(codec bsa.Codec) error {
	for i := range f.Chunks {
		if err := f.Chunks[i].Decompress(codec); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	return nil
}

// Materialize returns the concatenated decompressed chunks without changing the file.
func (f *File) Materialize(codec bsa.Codec) ([]byte, error) {
	if len(f.Chunks) == 1 {
		return f.Chunks[0].Materialize(codec)
	}

	out := make([]byte, 0, f.PayloadSize())
	for i := range f.Chunks {
		data, err := f.Chunks[i].Materialize(codec)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		out = append(out, data...)
	}

	return out, nil
}

// readFile parses one file record after its hash.
func readFile(f *File, r *binio.Reader, format Format, owner any) error {
	recordSize, _, err := format.layout()
	if err != nil {
		return err
	}

	r.SeekRelative(1) // mod index
	count, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("chunk count: %w", err)
	}

	hdrSize, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("chunk header size: %w", err)
	}
	if int(hdrSize) != recordSize {
		return fmt.Errorf("%w: chunk header size 0x%X for %s", bsa.ErrMalformedRecord, hdrSize, format)
	}

	if format == FormatDirectX {
		if err := readTextureHeader(&f.Header, r); err != nil {
			return err
		}
	}

	f.Chunks = make([]Chunk, count)
	for i := range f.Chunks {
		if err := readChunk(&f.Chunks[i], r, format, owner); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	return nil
}

func readTextureHeader(h *TextureHeader, r *binio.Reader) error {
	var err error
	if h.Height, err = r.ReadUint16(); err != nil {
		return fmt.Errorf("texture height: %w", err)
	}
	if h.Width, err = r.ReadUint16(); err != nil {
		return fmt.Errorf("texture width: %w", err)
	}

	b, err := r.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("texture header: %w", err)
	}
	h.MipCount, h.Format, h.Flags, h.TileMode = b[0], b[1], b[2], b[3]
	return nil
}

func writeTextureHeader(w *binio.Writer, h TextureHeader) {
	w.WriteUint16(h.Height)
	w.WriteUint16(h.Width)
	w.WriteUint8(h.MipCount)
	w.WriteUint8(h.Format)
	w.WriteUint8(h.Flags)
	w.WriteUint8(h.TileMode)
}

// readChunk parses one chunk record and captures its data.
func readChunk(c *Chunk, r *binio.Reader, format Format, owner any) error {
	offset, err := r.ReadUint64()
	if err != nil {
		return fmt.Errorf("data offset: %w", err)
	}
	compressedSize, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("compressed size: %w", err)
	}
	decompressedSize, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("decompressed size: %w", err)
	}

	if format == FormatDirectX {
		if c.Mips.First, err = r.ReadUint16(); err != nil {
			return fmt.Errorf("mips: %w", err)
		}
		if c.Mips.Last, err = r.ReadUint16(); err != nil {
			return fmt.Errorf("mips: %w", err)
		}
	}

	sentinel, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("sentinel: %w", err)
	}
	if sentinel != chunkSentinel {
		return fmt.Errorf("%w: 0x%08X", bsa.ErrInvalidSentinel, sentinel)
	}

	if offset > math.MaxInt {
		return fmt.Errorf("%w: data offset 0x%X", bsa.ErrMalformedRecord, offset)
	}

	size := decompressedSize
	if compressedSize != 0 {
		size = compressedSize
	}

	return r.WithRestore(func() error {
		r.SeekAbsolute(int(offset)) //nolint:gosec // bounded above
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}

		c.SetStored(data, owner, int(compressedSize), int(decompressedSize))
		return nil
	})
}

// writeChunk emits one chunk record and advances dataOffset by its stored length.
func writeChunk(w *binio.Writer, c *Chunk, format Format, dataOffset *uint64) {
	var compressedSize uint32
	if c.Compressed() {
		compressedSize = uint32(c.Len()) //nolint:gosec // checked by makeHeader
	}

	w.WriteUint64(*dataOffset)
	w.WriteUint32(compressedSize)
	w.WriteUint32(uint32(c.PayloadLen())) //nolint:gosec // checked by makeHeader
	*dataOffset += uint64(c.Len())

	if format == FormatDirectX {
		w.WriteUint16(c.Mips.First)
		w.WriteUint16(c.Mips.Last)
	}

	w.WriteUint32(chunkSentinel)
}
