package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/storage"
)

var leadingDigitsRe = regexp.MustCompile(`^[0-9]+`)

// AddReport summarizes a registration pass.
type AddReport struct {
	Added   int
	Skipped int
}

// Add registers or refreshes the metadata sidecar of every file in paths.
// Paths are taken relative to the working directory and must lie inside the
// catalog root; the name recorded is the path as given.
// Problems with a single file are logged and the file is skipped; only
// context cancellation or a failed sidecar write stop the pass early.
func (s *Service) Add(ctx context.Context, paths []string) (AddReport, error) {
	var rep AddReport
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if s.addOne(p) {
			rep.Added++
		} else {
			rep.Skipped++
		}
	}
	s.logger.Info("add: done", slog.Int("added", rep.Added), slog.Int("skipped", rep.Skipped))
	return rep, nil
}

func (s *Service) addOne(p string) bool {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		s.logger.Warn("add: is a directory, skipping", slog.String("path", p))
		return false
	}

	sum, err := checksum.File(p)
	if err != nil {
		s.logger.Warn("add: unable to hash, skipping", slog.String("path", p), slog.String("error", err.Error()))
		return false
	}

	if !s.store.Contains(p) {
		s.logger.Warn("add: outside catalog root, skipping", slog.String("path", p), slog.String("root", s.store.Root()))
		return false
	}

	meta, err := storage.MetaPath(p)
	if err != nil {
		s.logger.Warn("add: no metadata path, skipping", slog.String("path", p), slog.String("error", err.Error()))
		return false
	}

	doc, err := s.store.Load(meta)
	if err != nil {
		s.logger.Warn("add: unreadable metadata, skipping", slog.String("path", meta), slog.String("error", err.Error()))
		return false
	}
	if doc.IsZero() {
		// New records start out indexable.
		doc.Tags = []string{}
	}

	doc.Name = p
	doc.ContentHash = sum
	if date, ok := PubDateFromName(p); ok {
		doc.PubDate = date
	}

	if err := s.store.BackupAndSave(meta, doc); err != nil {
		s.logger.Warn("add: save failed, skipping", slog.String("path", meta), slog.String("error", err.Error()))
		return false
	}
	s.logger.Info("add: registered", slog.String("path", p), slog.String("md5", sum))
	return true
}

// PubDateFromName derives a YYYY, YYYY-MM or YYYY-MM-DD date from the run of
// digits a file name starts with. Runs of any other length are ambiguous and
// yield no date.
func PubDateFromName(p string) (string, bool) {
	digits := leadingDigitsRe.FindString(filepath.Base(p))
	switch len(digits) {
	case 4, 6, 8:
	default:
		return "", false
	}
	date := digits[:4]
	for rest := digits[4:]; rest != ""; rest = rest[2:] {
		date += "-" + rest[:2]
	}
	return date, true
}
