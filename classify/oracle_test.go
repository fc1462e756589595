package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wastore/tocmover/common"
)

func rec(name string, size int64) common.FileRecord {
	return common.FileRecord{Path: name, Name: name, Size: size, ModTime: time.Unix(0, 0)}
}

func TestClassify_NoiseRejection(t *testing.T) {
	a := Classify(rec(".DS_Store", 6*1024), DefaultRuleset)
	assert.Equal(t, common.EActionKind.Ignore(), a.Kind)
}

func TestClassify_GhostLinkBoundary(t *testing.T) {
	atThreshold := rec("big.bin", 5*(1<<30))
	overThreshold := rec("big.bin", 5*(1<<30)+1)

	assert.Equal(t, common.EActionKind.Transfer(), Classify(atThreshold, DefaultRuleset).Kind, "exactly at threshold must transfer, not link")
	assert.Equal(t, common.EActionKind.Link(), Classify(overThreshold, DefaultRuleset).Kind)
}

func TestClassify_ColdStorageRawVideo(t *testing.T) {
	f := rec("shoot.r3d", 51*1000*1000*1000)
	a := Classify(f, DefaultRuleset)
	assert.Equal(t, common.EActionKind.Link(), a.Kind)
	assert.Equal(t, common.ELinkTarget.ColdStorage(), a.Target)
}

func TestClassify_ArchiveModeContainerVideo(t *testing.T) {
	f := rec("movie.mp4", 51*1000*1000*1000)
	assert.Equal(t, common.Action{Kind: common.EActionKind.Link(), Target: common.ELinkTarget.SourceLocation()}, Classify(f, DefaultRuleset), "container video is not cold-storage outside archive mode; it is ghost-linked to its source location")

	a := Classify(f, Ruleset{ArchiveMode: true})
	assert.Equal(t, common.EActionKind.Link(), a.Kind)
	assert.Equal(t, common.ELinkTarget.ColdStorage(), a.Target)
}

func TestClassify_LosslessAudioConverts(t *testing.T) {
	a := Classify(rec("track.wav", 1024), DefaultRuleset)
	assert.Equal(t, common.EActionKind.Convert(), a.Kind)
	assert.Equal(t, "flac", a.Format)
}

func TestClassify_UncompressedImageConverts(t *testing.T) {
	a := Classify(rec("scan.bmp", 1024), DefaultRuleset)
	assert.Equal(t, common.EActionKind.Convert(), a.Kind)
	assert.Equal(t, "webp", a.Format)
}

func TestClassify_LargeTextDumpCompresses(t *testing.T) {
	small := rec("data.csv", 1024)
	assert.Equal(t, common.EActionKind.Transfer(), Classify(small, DefaultRuleset).Kind)

	big := rec("data.csv", 11*1000*1000)
	a := Classify(big, DefaultRuleset)
	assert.Equal(t, common.EActionKind.Compress(), a.Kind)
	assert.Equal(t, "zstd", a.Format)
}

func TestClassify_DefaultTransfer(t *testing.T) {
	a := Classify(rec("weird.xyz123", 10), DefaultRuleset)
	assert.Equal(t, common.EActionKind.Transfer(), a.Kind)
}

func TestClassify_DeterministicRepeatedCalls(t *testing.T) {
	f := rec("photo.bmp", 5000)
	a1 := Classify(f, DefaultRuleset)
	a2 := Classify(f, DefaultRuleset)
	assert.Equal(t, a1, a2)
}

func TestClassify_BuildDirectoryNoise(t *testing.T) {
	f := common.FileRecord{Path: "project/node_modules/pkg/index.js", Name: "index.js", Size: 10}
	a := Classify(f, DefaultRuleset)
	assert.Equal(t, common.EActionKind.Ignore(), a.Kind)
}

func TestPartitionFiles_BucketsByFamily(t *testing.T) {
	files := []common.FileRecord{
		rec(".DS_Store", 10),
		rec("a.txt", 10),
		rec("huge.bin", 6*(1<<30)),
	}
	p := PartitionFiles(files, DefaultRuleset)
	assert.Len(t, p.Ignore, 1)
	assert.Len(t, p.Transfer, 1)
	assert.Len(t, p.Link, 1)
}
