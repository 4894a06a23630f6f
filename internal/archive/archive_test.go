package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/noteservice"
	"github.com/starford/jotgrid/internal/repository"
	"github.com/starford/jotgrid/internal/status"
	"github.com/starford/jotgrid/internal/store"
	"github.com/starford/jotgrid/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func memoryService() *noteservice.Service {
	return noteservice.NewService(repository.New(store.NewMemory()), noteservice.WithLogger(quiet))
}

func saveAll(t *testing.T, svc *noteservice.Service, notes ...models.Note) {
	t.Helper()
	for _, n := range notes {
		require.Equal(t, status.Succeeded, status.Last(svc.Save(context.Background(), n)).State)
	}
}

func TestExportThenImportIntoFreshStore(t *testing.T) {
	ctx := context.Background()
	src := memoryService()
	saveAll(t, src,
		models.Note{ID: 1, Text: "one", Date: testutil.Day(1)},
		models.Note{ID: 2, Text: "two\nlines", Date: testutil.Day(2)},
	)

	dir, err := OpenDir(filepath.Join(t.TempDir(), "out"), true)
	require.NoError(t, err)

	rep, err := Export(ctx, src, dir, quiet)
	require.NoError(t, err)
	assert.Equal(t, Report{Written: 2}, rep)

	dst := noteservice.NewService(repository.New(testutil.TestDB(t)), noteservice.WithLogger(quiet))
	rep, err = Import(ctx, dst, dir, quiet)
	require.NoError(t, err)
	assert.Equal(t, Report{Written: 2}, rep)

	notes := status.Last(dst.List(ctx)).Value
	require.Len(t, notes, 2)
	assert.Equal(t, []int64{2, 1}, models.IDs(notes))
	assert.Equal(t, "two\nlines", notes[0].Text)
	assert.True(t, notes[0].Date.Equal(testutil.Day(2)))
}

func TestExportSkipsUnchangedFiles(t *testing.T) {
	ctx := context.Background()
	svc := memoryService()
	saveAll(t, svc, models.Note{ID: 1, Text: "a", Date: testutil.Day(1)})

	dir, err := OpenDir(t.TempDir(), false)
	require.NoError(t, err)

	_, err = Export(ctx, svc, dir, quiet)
	require.NoError(t, err)

	saveAll(t, svc, models.Note{ID: 2, Text: "b", Date: testutil.Day(2)})
	rep, err := Export(ctx, svc, dir, quiet)
	require.NoError(t, err)
	assert.Equal(t, Report{Written: 1, Unchanged: 1}, rep)
}

func TestImportFileWithoutFrontMatterUsesModTime(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "loose.md")
	require.NoError(t, os.WriteFile(path, []byte("loose note"), 0o644))
	mtime := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.txt"), []byte("ignored"), 0o644))

	dir, err := OpenDir(root, false)
	require.NoError(t, err)
	svc := memoryService()

	rep, err := Import(ctx, svc, dir, quiet)
	require.NoError(t, err)
	assert.Equal(t, Report{Written: 1}, rep)

	notes := status.Last(svc.List(ctx)).Value
	require.Len(t, notes, 1)
	assert.Equal(t, "loose note", notes[0].Text)
	assert.NotZero(t, notes[0].ID)
	assert.True(t, notes[0].Date.Equal(mtime))
}

func TestImportCountsBadFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.md"), []byte("---\ndate: soon\n---\nx"), 0o644))

	dir, err := OpenDir(root, false)
	require.NoError(t, err)
	rep, err := Import(context.Background(), memoryService(), dir, quiet)
	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1}, rep)
}

func TestExportFailsOnStoreError(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Close())
	svc := noteservice.NewService(repository.New(mem), noteservice.WithLogger(quiet))

	dir, err := OpenDir(t.TempDir(), false)
	require.NoError(t, err)
	_, err = Export(context.Background(), svc, dir, quiet)
	assert.ErrorContains(t, err, "store operation failed")
}

func TestDirTraversalBlocked(t *testing.T) {
	dir, err := OpenDir(t.TempDir(), false)
	require.NoError(t, err)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		_, err := dir.Read(p)
		assert.Error(t, err, p)
		assert.Error(t, dir.Write(p, []byte("x")), p)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir, err := OpenDir(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, dir.Write("a.md", []byte("v1")))
	require.NoError(t, dir.Write("a.md", []byte("v2")))

	got, err := dir.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	matches, _ := filepath.Glob(filepath.Join(dir.root, ".jotgrid-tmp-*"))
	assert.Empty(t, matches)
}

func TestOpenDirRejectsFile(t *testing.T) {
	f, err := os.CreateTemp("", "jotgrid-test-*")
	require.NoError(t, err)
	f.Close()
	defer os.Remove(f.Name())

	_, err = OpenDir(f.Name(), false)
	assert.Error(t, err)
}
