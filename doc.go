// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

/*
Package bsa provides shared building blocks for Bethesda archive codecs:
byte buffers with explicit ownership, lazily compressed payloads, ordered
hash-keyed containers, archive path normalization, format detection, and
format-independent extract and inventory helpers.

Revision-specific codecs live in subpackages:
  - tes3: Morrowind archives (magic 0x100);
  - tes4: Oblivion, Fallout 3, New Vegas, Skyrim and Skyrim SE archives ("BSA\0");
  - fo4: Fallout 4 general and texture archives ("BTDX").

Buffer ownership (summary):
  - ReadBytes borrows the caller slice (View);
  - Read and ReadFile borrow a Source that stays alive while any buffer refers to it (Proxied);
  - Add, Detach and Decompress produce private copies (Owned).

# Detecting

	format, err := bsa.DetectFormat("Skyrim - Meshes0.bsa")
	if err != nil {
	    return err
	}

# Reading

Reads are transactional: on error the archive is left empty.

	var a tes4.Archive
	version, err := a.ReadFile("Skyrim - Meshes0.bsa", bsa.ReadOptions{Logger: logger})
	if err != nil {
	    return err
	}
	if f, ok := a.Find(`meshes\clutter\bucket01.nif`); ok {
	    data, err := f.Materialize(tes4.CodecFor(version))
	    // use data
	}

# Writing

Archive entries keep insertion order. Sort explicitly when a canonical
layout is needed:

	var a fo4.Archive
	if _, err := a.Add(`Interface\Pipboy_StatsPage.swf`, swf); err != nil {
	    return err
	}
	if err := a.WriteFile("out.ba2", fo4.FormatGeneral, bsa.WriteOptions{}); err != nil {
	    return err
	}

# Extracting

Extract members of any revision (parallel workers). Name filters use
github.com/woozymasta/pathrules:

	err := bsa.Extract(ctx, "out/", a.Members(version), bsa.ExtractOptions{
	    MaxWorkers: 4,
	    Include: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "textures/**"},
	    },
	})

Path sanitization is enabled by default during extraction.
Disable it explicitly when raw names are required:

	err := bsa.Extract(ctx, "out/", members, bsa.ExtractOptions{RawNames: true})

# Inventory

Build a BLAKE3 content listing and encode it as YAML:

	inv, err := bsa.BuildInventory(ctx, bsa.FormatFO4, a.Members(fo4.CodecFor(fo4.FormatGeneral)), bsa.InventoryOptions{})
	if err != nil {
	    return err
	}
	return inv.WriteYAML(os.Stdout)
*/
package bsa
