// Package archive exports notes to, and imports notes from, a directory of
// Markdown files with YAML front matter.
package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/jotgrid/internal/checksum"
	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/noteservice"
	"github.com/starford/jotgrid/internal/status"
)

// Report counts what an export or import did.
type Report struct {
	Written   int
	Unchanged int
	Failed    int
}

// FileName returns the archive file name for a note.
func FileName(n models.Note) string {
	return fmt.Sprintf("%d.md", n.ID)
}

// Export writes every note to dir as <id>.md. Files whose content would not
// change are left alone. Per-file failures are logged and counted.
func Export(ctx context.Context, svc *noteservice.Service, dir *Dir, logger *slog.Logger) (Report, error) {
	var rep Report

	st := status.Last(svc.List(ctx))
	if st.State == status.Failed {
		return rep, fmt.Errorf("archive: export: %s", st.Message)
	}

	entries, err := dir.List()
	if err != nil {
		return rep, err
	}
	existing := make(map[string]string, len(entries))
	for _, e := range entries {
		existing[e.Path] = e.Checksum
	}

	for _, n := range st.Value {
		name := FileName(n)
		data, err := Encode(n)
		if err != nil {
			logger.Warn("export: encode failed", slog.Int64("id", n.ID), slog.String("error", err.Error()))
			rep.Failed++
			continue
		}
		if existing[name] == checksum.Sum(data) {
			rep.Unchanged++
			continue
		}
		if err := dir.Write(name, data); err != nil {
			logger.Warn("export: write failed", slog.String("path", name), slog.String("error", err.Error()))
			rep.Failed++
			continue
		}
		logger.Debug("export: wrote", slog.String("path", name))
		rep.Written++
	}
	return rep, nil
}

// Import saves every .md file under dir as a note. A front-matter id replaces
// the stored note with that id; files without one become new notes. Files
// without a date take their modification time.
func Import(ctx context.Context, svc *noteservice.Service, dir *Dir, logger *slog.Logger) (Report, error) {
	var rep Report

	entries, err := dir.List()
	if err != nil {
		return rep, err
	}

	for _, e := range entries {
		data, err := dir.Read(e.Path)
		if err != nil {
			logger.Warn("import: read failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			rep.Failed++
			continue
		}
		n, hasDate, err := Decode(data)
		if err != nil {
			logger.Warn("import: decode failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			rep.Failed++
			continue
		}
		if !hasDate {
			n.Date = e.ModTime.UTC()
		}

		st := status.Last(svc.Save(ctx, n))
		if st.State == status.Failed {
			logger.Warn("import: save failed", slog.String("path", e.Path), slog.String("error", st.Message))
			rep.Failed++
			continue
		}
		logger.Debug("import: saved", slog.String("path", e.Path))
		rep.Written++
	}
	return rep, nil
}
