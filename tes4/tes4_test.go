// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/bsa

package tes4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/bsa"
)

func TestHashDirectory(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want uint64
	}{
		{path: "textures/armor/amuletsandrings/elder council", want: 0x04BC422C742C696C},
		{path: "sound/voice/skyrim.esm/maleuniquedbguardian", want: 0x594085AC732B616E},
		{path: "textures/architecture/windhelm", want: 0xC1D97EBE741E6C6D},
		{path: "Textures/Architecture/Windhelm/", want: 0xC1D97EBE741E6C6D},
		{path: ".", want: 0x2E01002E},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			h, _ := HashDirectory(tc.path)
			if got := h.Numeric(); got != tc.want {
				t.Fatalf("HashDirectory(%q)=%#016x, want %#016x", tc.path, got, tc.want)
			}
		})
	}

	empty, name := HashDirectory("")
	dot, _ := HashDirectory(".")
	if empty != dot || name != "." {
		t.Fatalf("HashDirectory(\"\")=%+v %q, want %+v \".\"", empty, name, dot)
	}
}

func TestHashFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want uint64
	}{
		{path: "elder_council_amulet_n.dds", want: 0xDC531E2F6516DFEE},
		{path: "María_F.fuz", want: 0x6434BBA36D085F66},
		{path: "darkbrotherhood__0007469a_1.fuz", want: 0x011F11B0641B5F31},
		{path: "testtoddquest_testtoddhappy_00027fa2_1.mp3", want: 0xDE0301EE74265F31},
		{path: "meshes/a.nif", want: 0x92CD45FD61018061},
		{path: "Textures/foo.DDS", want: 0x8DDBA9C56603EFEF},
		{path: ".gitignore", want: 0},
		{path: "file.extensionistoolong", want: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			h, _ := HashFile(tc.path)
			if got := h.Numeric(); got != tc.want {
				t.Fatalf("HashFile(%q)=%#016x, want %#016x", tc.path, got, tc.want)
			}
		})
	}
}

func TestHashFileKeepsLastComponent(t *testing.T) {
	t.Parallel()

	a, name := HashFile(`Meshes\Clutter\Bucket01.NIF`)
	b, _ := HashFile("bucket01.nif")
	if a != b || name != "bucket01.nif" {
		t.Fatalf("HashFile=%+v %q, want %+v \"bucket01.nif\"", a, name, b)
	}

	if (Hash{CRC: 1}).Compare(Hash{Last: 0xFF}) <= 0 {
		t.Fatal("CRC must dominate the numeric order")
	}
}

// sampleArchive builds a small archive with nested and root-level files.
func sampleArchive(t *testing.T, flags ArchiveFlag) *Archive {
	t.Helper()

	a := &Archive{Flags: flags, Types: TypeMeshes | TypeTextures}
	for _, p := range []struct {
		path string
		data string
	}{
		{path: "meshes/clutter/bucket01.nif", data: "bucket mesh"},
		{path: "meshes/clutter/broom01.nif", data: "broom mesh payload"},
		{path: "textures/clutter/bucket01.dds", data: "dds"},
		{path: "readme.txt", data: ""},
	} {
		if _, err := a.Add(p.path, []byte(p.data)); err != nil {
			t.Fatalf("Add(%q): %v", p.path, err)
		}
	}

	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		version Version
		flags   ArchiveFlag
	}{
		{name: "oblivion", version: VersionTES4, flags: FlagDirectoryStrings | FlagFileStrings},
		{name: "skyrim", version: VersionTES5, flags: FlagDirectoryStrings | FlagFileStrings | FlagRetainFileNames},
		{name: "sse", version: VersionSSE, flags: FlagDirectoryStrings | FlagFileStrings},
		{name: "embedded", version: VersionFO3, flags: FlagDirectoryStrings | FlagFileStrings | FlagEmbeddedFileNames},
		{name: "embedded-only", version: VersionFO3, flags: FlagEmbeddedFileNames},
		{name: "hashes-only", version: VersionTES5, flags: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := sampleArchive(t, tc.flags)
			if !in.VerifyOffsets(tc.version) {
				t.Fatal("VerifyOffsets()=false")
			}

			var buf bytes.Buffer
			if err := in.Write(&buf, tc.version, bsa.WriteOptions{}); err != nil {
				t.Fatalf("Write: %v", err)
			}

			var out Archive
			v, err := out.ReadBytes(buf.Bytes(), bsa.ReadOptions{})
			if err != nil {
				t.Fatalf("ReadBytes: %v", err)
			}
			if v != tc.version {
				t.Fatalf("version=%d, want %d", v, tc.version)
			}
			if out.Flags != tc.flags || out.Types != in.Types {
				t.Fatalf("flags=%v types=%v, want %v %v", out.Flags, out.Types, tc.flags, in.Types)
			}
			if out.Len() != 3 {
				t.Fatalf("directories=%d, want 3", out.Len())
			}

			f, ok := out.Find("Meshes/Clutter/Broom01.nif")
			if !ok {
				t.Fatal("broom01.nif not found")
			}
			if got := string(f.Bytes()); got != "broom mesh payload" {
				t.Fatalf("payload=%q", got)
			}
			if f.Ownership() != bsa.View {
				t.Fatalf("ownership=%v, want view", f.Ownership())
			}

			names := tc.flags&(FlagFileStrings|FlagEmbeddedFileNames) != 0
			dir, _ := out.FindDirectory("meshes/clutter")
			key, _ := dir.At(0)
			if names && key.Name() != "bucket01.nif" {
				t.Fatalf("first file name=%q, want bucket01.nif", key.Name())
			}
			if !names && key.Name() != "" {
				t.Fatalf("first file name=%q, want empty", key.Name())
			}

			var again bytes.Buffer
			if err := out.Write(&again, v, bsa.WriteOptions{}); err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), again.Bytes()) {
				t.Fatal("rewrite is not byte-identical")
			}
		})
	}
}

func TestArchiveCompression(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		version Version
		flags   ArchiveFlag
	}{
		{name: "zlib-default", version: VersionTES5, flags: FlagDirectoryStrings | FlagFileStrings | FlagCompressed},
		{name: "zlib-flipped", version: VersionTES5, flags: FlagDirectoryStrings | FlagFileStrings},
		{name: "lz4-default", version: VersionSSE, flags: FlagDirectoryStrings | FlagFileStrings | FlagCompressed},
		{name: "lz4-embedded", version: VersionSSE, flags: FlagFileStrings | FlagCompressed | FlagEmbeddedFileNames},
	}

	payload := bytes.Repeat([]byte("skyrim belongs to the nords "), 64)

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			codec := CodecFor(tc.version)
			in := &Archive{Flags: tc.flags}
			packed, err := in.Add("sound/voice/line.fuz", payload)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := packed.Compress(codec); err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if _, err := in.Add("sound/voice/raw.wav", []byte("raw")); err != nil {
				t.Fatalf("Add: %v", err)
			}

			var buf bytes.Buffer
			if err := in.Write(&buf, tc.version, bsa.WriteOptions{}); err != nil {
				t.Fatalf("Write: %v", err)
			}

			var out Archive
			if _, err := out.ReadBytes(buf.Bytes(), bsa.ReadOptions{}); err != nil {
				t.Fatalf("ReadBytes: %v", err)
			}

			f, ok := out.Find("sound/voice/line.fuz")
			if !ok {
				t.Fatal("line.fuz not found")
			}
			if !f.Compressed() {
				t.Fatal("line.fuz read back uncompressed")
			}
			if f.Len() != packed.Len() {
				t.Fatalf("stored len=%d, want %d", f.Len(), packed.Len())
			}
			if size, _ := f.DecompressedSize(); size != len(payload) {
				t.Fatalf("decompressed size=%d, want %d", size, len(payload))
			}

			if err := f.Decompress(codec); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(f.Bytes(), payload) || f.Ownership() != bsa.Owned {
				t.Fatalf("decompressed payload mismatch (len %d, %v)", f.Len(), f.Ownership())
			}

			raw, ok := out.Find("sound/voice/raw.wav")
			if !ok || raw.Compressed() || string(raw.Bytes()) != "raw" {
				t.Fatalf("raw.wav=%v compressed=%v", ok, raw != nil && raw.Compressed())
			}
		})
	}
}

func TestArchiveXboxByteOrder(t *testing.T) {
	t.Parallel()

	in := sampleArchive(t, FlagDirectoryStrings|FlagFileStrings|FlagXboxArchive)

	var buf bytes.Buffer
	if err := in.Write(&buf, VersionTES5, bsa.WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var out Archive
	if _, err := out.ReadBytes(buf.Bytes(), bsa.ReadOptions{}); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}

	first, _ := out.At(0)
	encoded := buf.Bytes()
	if got := binary.BigEndian.Uint32(encoded[headerSize+4:]); got != first.Hash().CRC {
		t.Fatalf("directory CRC=%#08x, want big-endian %#08x", got, first.Hash().CRC)
	}

	var prev uint64
	for _, key := range out.Keys() {
		k := xboxSortKey(key)
		if k < prev {
			t.Fatalf("directory %q out of xbox order", key.Name())
		}
		prev = k
	}

	for _, p := range []string{"meshes/clutter/bucket01.nif", "textures/clutter/bucket01.dds", "readme.txt"} {
		if _, ok := out.Find(p); !ok {
			t.Fatalf("Find(%q) failed after xbox round trip", p)
		}
	}
}

func TestArchiveReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sample.bsa")
	in := sampleArchive(t, FlagDirectoryStrings|FlagFileStrings)
	if err := in.WriteFile(path, VersionSSE, bsa.WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	format, err := bsa.DetectFormat(path)
	if err != nil || format != bsa.FormatTES4 {
		t.Fatalf("DetectFormat=%v, %v", format, err)
	}

	var out Archive
	v, err := out.ReadFile(path, bsa.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if v != VersionSSE {
		t.Fatalf("version=%d", v)
	}

	f, ok := out.Find("textures/clutter/bucket01.dds")
	if !ok {
		t.Fatal("bucket01.dds not found")
	}
	if f.Ownership() != bsa.Proxied {
		t.Fatalf("ownership=%v, want proxied", f.Ownership())
	}

	members := out.Members(v)
	if len(members) != 4 {
		t.Fatalf("members=%d, want 4", len(members))
	}
	if members[0].Name != `meshes\clutter\bucket01.nif` {
		t.Fatalf("first member=%q", members[0].Name)
	}
	data, err := members[0].Open()
	if err != nil || string(data) != "bucket mesh" {
		t.Fatalf("Open()=%q, %v", data, err)
	}
}

func TestArchiveDuplicates(t *testing.T) {
	t.Parallel()

	var a Archive
	if _, err := a.Add("meshes/a.nif", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := a.Add("MESHES/A.NIF", nil); !errors.Is(err, bsa.ErrDuplicateKey) {
		t.Fatalf("duplicate Add err=%v, want ErrDuplicateKey", err)
	}

	d1, err := a.AddDirectory("meshes")
	if err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}
	d2, _ := a.AddDirectory("Meshes/")
	if d1 != d2 || a.Len() != 1 {
		t.Fatal("AddDirectory must return the existing directory")
	}
}

func TestArchiveReadMalformed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := sampleArchive(t, FlagDirectoryStrings|FlagFileStrings).Write(&buf, VersionTES5, bsa.WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	valid := buf.Bytes()

	patch := func(off int, v uint32) []byte {
		out := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(out[off:], v)
		return out
	}

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{name: "short", data: valid[:10], want: bsa.ErrMalformedHeader},
		{name: "magic", data: patch(0, bsa.MagicFO4), want: bsa.ErrMalformedHeader},
		{name: "version", data: patch(4, 200), want: bsa.ErrMalformedHeader},
		{name: "directory-offset", data: patch(8, 0x30), want: bsa.ErrMalformedHeader},
		{name: "truncated", data: valid[:len(valid)-3], want: bsa.ErrTruncatedInput},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := sampleArchive(t, FlagCompressed)
			if _, err := a.ReadBytes(tc.data, bsa.ReadOptions{}); !errors.Is(err, tc.want) {
				t.Fatalf("ReadBytes err=%v, want %v", err, tc.want)
			}
			if !a.Empty() || a.Flags != 0 {
				t.Fatal("archive must be cleared after a failed read")
			}
		})
	}
}

func TestWriteRejectsInvalidVersion(t *testing.T) {
	t.Parallel()

	a := sampleArchive(t, 0)
	if err := a.Write(&bytes.Buffer{}, 100, bsa.WriteOptions{}); !errors.Is(err, bsa.ErrMalformedHeader) {
		t.Fatalf("Write err=%v, want ErrMalformedHeader", err)
	}
	if a.VerifyOffsets(100) {
		t.Fatal("VerifyOffsets accepted an invalid version")
	}
}

func TestEmbeddedNameTooLong(t *testing.T) {
	t.Parallel()

	a := &Archive{Flags: FlagEmbeddedFileNames}
	long := bytes.Repeat([]byte("d"), 200)
	if _, err := a.Add(string(long)+"/"+string(long[:54])+".txt", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := a.Write(&bytes.Buffer{}, VersionTES5, bsa.WriteOptions{}); !errors.Is(err, bsa.ErrStringTooLong) {
		t.Fatalf("Write err=%v, want ErrStringTooLong", err)
	}
}

func TestDirectoryNameTooLong(t *testing.T) {
	t.Parallel()

	a := &Archive{Flags: FlagDirectoryStrings | FlagFileStrings}
	if _, err := a.Add(strings.Repeat("d", 255)+`\a`, []byte("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if a.VerifyOffsets(VersionTES5) {
		t.Fatal("VerifyOffsets=true for a directory name longer than its prefix")
	}

	var buf bytes.Buffer
	err := a.Write(&buf, VersionTES5, bsa.WriteOptions{})
	if !errors.Is(err, bsa.ErrStringTooLong) || errors.Is(err, bsa.ErrIO) {
		t.Fatalf("Write err=%v, want ErrStringTooLong without ErrIO", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Write emitted %d bytes before failing", buf.Len())
	}

	path := filepath.Join(t.TempDir(), "long.bsa")
	if err := a.WriteFile(path, VersionTES5, bsa.WriteOptions{}); !errors.Is(err, bsa.ErrStringTooLong) {
		t.Fatalf("WriteFile err=%v, want ErrStringTooLong", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat after failed WriteFile err=%v, want ErrNotExist", err)
	}

	a.Flags = FlagFileStrings
	if !a.VerifyOffsets(VersionTES5) {
		t.Fatal("VerifyOffsets=false without directory strings")
	}
}
