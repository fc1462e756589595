package classify

import (
	"path/filepath"
	"strings"

	"github.com/wastore/tocmover/common"
)

const (
	ghostLinkThreshold       int64 = 5 * 1 << 30          // 5 GiB (spec §4.1 rule 2)
	coldStorageThreshold     int64 = 50 * 1000 * 1000 * 1000 // 50 GB, decimal per spec wording
	textDumpCompressThreshold int64 = 10 * 1000 * 1000     // 10 MB
)

// deny-list basenames/extensions (spec §4.1 rule 1: noise rejection).
var denyExtensions = map[string]bool{
	".bak": true, ".tmp": true, ".temp": true, ".log": true, ".swp": true,
	".orig": true, ".~": true,
}

var denyBasenames = map[string]bool{
	".DS_Store":      true,
	"Thumbs.db":      true,
	"desktop.ini":    true,
	".localized":     true,
}

// regeneratable build/VCS directories whose contents are noise regardless
// of filename (spec §4.1 rule 1).
var denyDirBasenames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".svn":         true,
	".hg":          true,
	"__pycache__":  true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".terraform":   true,
	"vendor":       true,
}

var rawVideoExtensions = map[string]bool{
	".braw": true, ".r3d": true, ".ari": true, ".dng": true,
}

// container-video formats that, under archive_mode, also route to cold
// storage once oversized (spec §4.1 rule 2).
var containerVideoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true,
}

var losslessAudioExtensions = map[string]bool{
	".wav": true, ".aiff": true, ".aif": true,
}

var uncompressedImageExtensions = map[string]bool{
	".bmp": true, ".tiff": true, ".tif": true,
}

var textDumpExtensions = map[string]bool{
	".sql": true, ".csv": true, ".json": true,
}

// already-compressed / office / source / config formats that transfer raw
// without further consideration (spec §4.1 rule 6).
var passthroughExtensions = map[string]bool{
	".zip": true, ".gz": true, ".tgz": true, ".7z": true, ".rar": true, ".xz": true, ".zst": true,
	".mp3": true, ".flac": true, ".aac": true, ".ogg": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
	".docx": true, ".xlsx": true, ".pptx": true, ".pdf": true, ".odt": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".rs": true, ".c": true, ".cpp": true, ".java": true,
	".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".env": true,
}

// Ruleset selects between the default cascade and the archive-mode variant
// (spec §4.1 rule 2, "Under the archive_mode ruleset").
type Ruleset struct {
	ArchiveMode bool
}

// DefaultRuleset is the conformance-suite default (spec §8 scenarios assume it).
var DefaultRuleset = Ruleset{ArchiveMode: false}

func isNoise(file common.FileRecord) bool {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if denyExtensions[ext] {
		return true
	}
	if denyBasenames[file.Name] {
		return true
	}
	dir := filepath.Dir(file.Path)
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if denyDirBasenames[part] {
			return true
		}
	}
	return false
}
