// Copyright (c) 2026 tocmover contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.

// Package classify implements the file-classification oracle (spec §4.1):
// a pure, stateless function deciding per file whether to copy bytes,
// ghost-link, convert, compress, or ignore. It never fails — unknown
// extensions fall through to the default transfer action.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/wastore/tocmover/common"
)

// Classify applies the rule cascade in spec.md §4.1 to one file record,
// first match wins. It is pure and deterministic: repeated calls with the
// same inputs always yield the same Action (spec §8 round-trip property).
func Classify(file common.FileRecord, rules Ruleset) common.Action {
	ext := strings.ToLower(filepath.Ext(file.Name))

	// Rule 1: noise rejection.
	if isNoise(file) {
		return common.Action{Kind: common.EActionKind.Ignore()}
	}

	// Rule 2: ghost link by size (strict greater-than; boundary belongs to
	// transfer, per spec §8 boundary behaviour).
	if file.Size > coldStorageThreshold && rawVideoExtensions[ext] {
		return common.Action{Kind: common.EActionKind.Link(), Target: common.ELinkTarget.ColdStorage()}
	}
	if rules.ArchiveMode && file.Size > coldStorageThreshold && containerVideoExtensions[ext] {
		return common.Action{Kind: common.EActionKind.Link(), Target: common.ELinkTarget.ColdStorage()}
	}
	if file.Size > ghostLinkThreshold {
		return common.Action{Kind: common.EActionKind.Link(), Target: common.ELinkTarget.SourceLocation()}
	}

	// Rule 3: lossless audio -> FLAC.
	if losslessAudioExtensions[ext] {
		return common.Action{Kind: common.EActionKind.Convert(), Format: "flac", Priority: common.EPriority.Medium()}
	}

	// Rule 4: uncompressed images -> WebP.
	if uncompressedImageExtensions[ext] {
		return common.Action{Kind: common.EActionKind.Convert(), Format: "webp", Priority: common.EPriority.Low()}
	}

	// Rule 5: large text dumps compress.
	if textDumpExtensions[ext] && file.Size > textDumpCompressThreshold {
		priority := common.EPriority.Medium()
		if ext == ".json" {
			priority = common.EPriority.High()
		}
		return common.Action{Kind: common.EActionKind.Compress(), Format: "zstd", Priority: priority}
	}

	// Rule 6: already-compressed/office/source/config formats pass through
	// untouched at immediate priority.
	if passthroughExtensions[ext] {
		return common.Action{Kind: common.EActionKind.Transfer(), Priority: common.EPriority.Immediate()}
	}

	// Rule 7: anything not otherwise matched still transfers raw.
	return common.Action{Kind: common.EActionKind.Transfer(), Priority: common.EPriority.Immediate()}
}

// Partitioned holds the buckets PartitionFiles sorts classification results
// into by action family (spec §4.1, "Batch partition"). The coordinator only
// consumes Transfer, Link, and Ignore; Convert/Compress are forwarded
// unchanged to an external processor out of this repo's scope.
type Partitioned struct {
	Transfer []common.FileRecord
	Link     []LinkedFile
	Ignore   []common.FileRecord
	Convert  []common.FileRecord
	Compress []common.FileRecord
}

// LinkedFile pairs a file with the ghost-link target its size/extension
// routed it to.
type LinkedFile struct {
	File   common.FileRecord
	Target common.LinkTarget
}

// PartitionFiles classifies every file and buckets it (spec §4.1).
func PartitionFiles(files []common.FileRecord, rules Ruleset) Partitioned {
	var p Partitioned
	for _, f := range files {
		if f.IsDir {
			continue
		}
		action := Classify(f, rules)
		switch action.Kind {
		case common.EActionKind.Ignore():
			p.Ignore = append(p.Ignore, f)
		case common.EActionKind.Link():
			p.Link = append(p.Link, LinkedFile{File: f, Target: action.Target})
		case common.EActionKind.Convert():
			p.Convert = append(p.Convert, f)
		case common.EActionKind.Compress():
			p.Compress = append(p.Compress, f)
		default:
			p.Transfer = append(p.Transfer, f)
		}
	}
	return p
}
