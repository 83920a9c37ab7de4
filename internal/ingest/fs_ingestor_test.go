package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/labparse"
	"github.com/joseph-ayodele/labs-tracker/internal/ocr"
	"github.com/joseph-ayodele/labs-tracker/internal/services/labs"
)

// fakeLabs remembers every extracted payload so repeats are reported as duplicates.
type fakeLabs struct {
	mu   sync.Mutex
	seen map[string]uuid.UUID
	docs []ocr.Document
	fail []byte
}

func newFakeLabs() *fakeLabs { return &fakeLabs{seen: map[string]uuid.UUID{}} }

func (f *fakeLabs) Extract(_ context.Context, _ string, doc ocr.Document) (labs.ExtractResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	id := uuid.New()
	if f.fail != nil && bytes.Equal(doc.Data, f.fail) {
		return labs.ExtractResult{FileID: id}, common.NewStageError(constants.StageAcquisition,
			common.CodeCorruptDocument, "document could not be parsed", common.ErrCorruptDocument)
	}
	f.seen[string(doc.Data)] = id
	if string(doc.Data) == "blank" {
		return labs.ExtractResult{FileID: id, NoText: true}, nil
	}
	return labs.ExtractResult{FileID: id, Results: []labparse.LabTestResult{{TestName: "K", Result: "4"}}}, nil
}

func (f *fakeLabs) FindDuplicate(_ context.Context, _ string, data []byte) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.seen[string(data)]
	return id, ok, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "CBC.JPG")
	writeFile(t, p, "jpeg-bytes")
	fl := newFakeLabs()
	ing := NewFSIngestor(fl, nil)

	r, err := ing.IngestPath(context.Background(), "u", p)
	require.NoError(t, err)
	assert.Equal(t, "jpg", r.FileExt)
	assert.Equal(t, 1, r.Results)
	assert.Len(t, r.HashHex, 64)
	require.Len(t, fl.docs, 1)
	assert.Equal(t, constants.MIMEJPEG, fl.docs[0].MIMEType)
	assert.Equal(t, "CBC.JPG", fl.docs[0].Filename)

	again, err := ing.IngestPath(context.Background(), "u", p)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, r.FileID, again.FileID)
	assert.Len(t, fl.docs, 1)
}

func TestIngestPath_RejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	writeFile(t, p, "K 4.1")

	_, err := NewFSIngestor(newFakeLabs(), nil).IngestPath(context.Background(), "u", p)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFileType)
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "report-a")
	writeFile(t, filepath.Join(root, "nested", "b.png"), "report-b")
	writeFile(t, filepath.Join(root, "nested", "copy-of-a.pdf"), "report-a")
	writeFile(t, filepath.Join(root, "blank.jpeg"), "blank")
	writeFile(t, filepath.Join(root, "broken.pdf"), "broken")
	writeFile(t, filepath.Join(root, "readme.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".cache", "hidden.pdf"), "hidden")

	fl := newFakeLabs()
	fl.fail = []byte("broken")
	ing := NewFSIngestor(fl, nil)
	ing.Workers = 1

	results, stats, err := ing.IngestDirectory(context.Background(), "u", root, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), stats.Matched)
	assert.Equal(t, uint32(4), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.NoText)
	require.Len(t, results, 5)

	for _, r := range results {
		assert.NotContains(t, r.SourcePath, ".cache")
		switch filepath.Base(r.SourcePath) {
		case "broken.pdf":
			assert.Equal(t, "acquisition", r.Stage)
			assert.NotEmpty(t, r.Err)
		case "blank.jpeg":
			assert.True(t, r.NoText)
			assert.Equal(t, common.ErrNoTextFound.Error(), r.Err)
			assert.Empty(t, r.Stage)
		}
	}
}

func TestIngestDirectory_RequiresRoot(t *testing.T) {
	_, _, err := NewFSIngestor(newFakeLabs(), nil).IngestDirectory(context.Background(), "u", " ", true)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("/x/report.pdf"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "x")
	writeFile(t, filepath.Join(root, "skip.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, filepath.Join(root, "existing.pdf"), next())

	writeFile(t, filepath.Join(root, "new.png"), "y")
	assert.Equal(t, filepath.Join(root, "new.png"), next())

	_, _, err = StartWatcher(ctx, WatchConfig{})
	assert.Error(t, err)
}
