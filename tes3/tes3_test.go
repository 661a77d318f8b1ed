// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/bsa

package tes3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/woozymasta/bsa"
)

func TestHashFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want uint64
	}{
		{path: "meshes/c/artifact_bloodring_01.nif", want: 0x1C3C1149920D5F0C},
		{path: "meshes/x/ex_stronghold_pylon00.nif", want: 0x20250749ACCCD202},
		{path: "meshes/r/xsteam_centurions.kf", want: 0x6E5C0F3125072EA6},
		{path: "textures/tx_rock_cave_mu_01.dds", want: 0x58060C2FA3D8F759},
		{path: "meshes/f/furn_ashl_chime_02.nif", want: 0x7C3B2F3ABFFC8611},
		{path: "textures/tx_rope_woven.dds", want: 0x5865632F0C052C64},
		{path: "icons/a/tx_templar_skirt.dds", want: 0x46512A0B60EDA673},
		{path: "icons/m/misc_prongs00.dds", want: 0x51715677BBA837D3},
		{path: "meshes/i/in_c_stair_plain_tall_02.nif", want: 0x2A324956BF89B1C9},
		{path: "meshes/r/xkwama worker.nif", want: 0x6D446E352C3F5A1E},
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

func TestHashFileWords(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want Hash
	}{
		{path: "Tiles/tile_0001.png", want: Hash{Lo: 0x0C18356B, Hi: 0xA578DB74}},
		{path: "Share/License.txt", want: Hash{Lo: 0x1B0D3416, Hi: 0xF5D5F30E}},
		{path: "Characters/character_0001.png", want: Hash{Lo: 0x74491918, Hi: 0x2BEBCD0A}},
	}

	for _, tc := range testCases {
		got, _ := HashFile(tc.path)
		if got != tc.want {
			t.Fatalf("HashFile(%q)=%+v, want %+v", tc.path, got, tc.want)
		}
	}
}

func TestHashFileNormalization(t *testing.T) {
	t.Parallel()

	a, name := HashFile("FOO/BAR/BAZ")
	b, _ := HashFile(`foo\bar\baz`)
	if a != b {
		t.Fatalf("case or separator changed hash: %+v != %+v", a, b)
	}
	if name != `foo\bar\baz` {
		t.Fatalf("normalized name=%q", name)
	}

	again, _ := HashFile(name)
	if again != a {
		t.Fatal("hash of normalized name differs")
	}

	if (Hash{Lo: 0, Hi: 1}).Compare(Hash{Lo: 1, Hi: 0}) >= 0 {
		t.Fatal("hashes must order by Lo before Hi")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	payloads := []struct {
		path string
		data []byte
	}{
		{path: "Tiles/tile_0001.png", data: []byte("tile")},
		{path: "Share/License.txt", data: []byte("license text")},
		{path: "Background/background_middle.png", data: []byte{}},
		{path: "Characters/character_0001.png", data: []byte{0, 1, 2, 3, 4}},
	}

	var in Archive
	for _, p := range payloads {
		if _, err := in.Add(p.path, p.data); err != nil {
			t.Fatalf("Add(%q): %v", p.path, err)
		}
	}
	if !in.VerifyOffsets() {
		t.Fatal("VerifyOffsets()=false")
	}

	var buf bytes.Buffer
	if err := in.Write(&buf, bsa.WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	encoded := buf.Bytes()
	if got := binary.LittleEndian.Uint32(encoded); got != bsa.MagicTES3 {
		t.Fatalf("magic=%#x", got)
	}

	var out Archive
	if err := out.ReadBytes(encoded, bsa.ReadOptions{}); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if out.Len() != len(payloads) {
		t.Fatalf("Len()=%d, want %d", out.Len(), len(payloads))
	}

	for i, p := range payloads {
		key, file := out.At(i)
		wantKey := KeyOf(p.path)
		if key.Hash() != wantKey.Hash() || key.Name() != wantKey.Name() {
			t.Fatalf("entry %d key=%+v/%q, want %+v/%q", i, key.Hash(), key.Name(), wantKey.Hash(), wantKey.Name())
		}
		if !bytes.Equal(file.Bytes(), p.data) {
			t.Fatalf("entry %d data=%q, want %q", i, file.Bytes(), p.data)
		}
		if file.Ownership() != bsa.View {
			t.Fatalf("entry %d ownership=%s, want view", i, file.Ownership())
		}
	}

	var again bytes.Buffer
	if err := out.Write(&again, bsa.WriteOptions{}); err != nil {
		t.Fatalf("Write again: %v", err)
	}
	if !bytes.Equal(encoded, again.Bytes()) {
		t.Fatal("rewrite is not byte-identical")
	}
}

func TestArchiveReadFileProxied(t *testing.T) {
	t.Parallel()

	var in Archive
	if _, err := in.Add("share/readme.txt", []byte("hello")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.bsa")
	if err := in.WriteFile(path, bsa.WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	format, err := bsa.DetectFormat(path)
	if err != nil || format != bsa.FormatTES3 {
		t.Fatalf("DetectFormat=%s,%v, want tes3", format, err)
	}

	var out Archive
	if err := out.ReadFile(path, bsa.ReadOptions{}); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	file, ok := out.Find("SHARE/README.TXT")
	if !ok {
		t.Fatal("Find: missing share/readme.txt")
	}
	if string(file.Bytes()) != "hello" {
		t.Fatalf("data=%q, want hello", file.Bytes())
	}
	if file.Ownership() != bsa.Proxied {
		t.Fatalf("ownership=%s, want proxied", file.Ownership())
	}
}

func TestArchiveDuplicate(t *testing.T) {
	t.Parallel()

	var a Archive
	if _, err := a.Add("meshes/a.nif", []byte("1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	_, err := a.Add(`MESHES\A.NIF`, []byte("2"))
	if !errors.Is(err, bsa.ErrDuplicateKey) {
		t.Fatalf("duplicate Add err=%v, want ErrDuplicateKey", err)
	}

	file, _ := a.Find("meshes/a.nif")
	if string(file.Bytes()) != "1" {
		t.Fatal("duplicate replaced the original entry")
	}
}

func TestArchiveMalformed(t *testing.T) {
	t.Parallel()

	var good Archive
	if _, err := good.Add("a.txt", []byte("abcdef")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := good.Write(&buf, bsa.WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	valid := buf.Bytes()

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0xFF

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{name: "magic", data: badMagic, want: bsa.ErrMalformedHeader},
		{name: "short header", data: valid[:6], want: bsa.ErrMalformedHeader},
		{name: "truncated data", data: valid[:len(valid)-2], want: bsa.ErrTruncatedInput},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var a Archive
			if _, err := a.Add("stale.txt", []byte("x")); err != nil {
				t.Fatalf("Add: %v", err)
			}

			err := a.ReadBytes(tc.data, bsa.ReadOptions{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("ReadBytes err=%v, want %v", err, tc.want)
			}
			if !a.Empty() {
				t.Fatalf("archive not cleared after failure: %d entries", a.Len())
			}
		})
	}
}

func TestMembers(t *testing.T) {
	t.Parallel()

	var a Archive
	if _, err := a.Add("textures/a.dds", []byte("tex")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	members := a.Members()
	if len(members) != 1 {
		t.Fatalf("len(members)=%d, want 1", len(members))
	}
	if members[0].Name != `textures\a.dds` || members[0].Size != 3 {
		t.Fatalf("member=%+v", members[0])
	}

	data, err := members[0].Open()
	if err != nil || string(data) != "tex" {
		t.Fatalf("Open()=%q,%v", data, err)
	}
}

// readMembers reads path and keeps nothing but the member list.
func readMembers(t *testing.T, path string) []bsa.Member {
	t.Helper()

	var a Archive
	if err := a.ReadFile(path, bsa.ReadOptions{}); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	return a.Members()
}

func TestMembersOutliveArchive(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("morrowind"), 1<<17)
	var a Archive
	if _, err := a.Add(`meshes\large.nif`, payload); err != nil {
		t.Fatalf("Add: %v", err)
	}

	path := filepath.Join(t.TempDir(), "large.bsa")
	if err := a.WriteFile(path, bsa.WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	members := readMembers(t, path)
	for range 5 {
		runtime.GC()
	}

	data, err := members[0].Open()
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("Open()=%d bytes, %v, want %d bytes", len(data), err, len(payload))
	}
	runtime.KeepAlive(members)
}
