package rename

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
)

// DocumentExt is the extension of the documents the engine renames.
const DocumentExt = ".pdf"

// MsgNoDocuments is the warning recorded when a tree holds no documents at all.
const MsgNoDocuments = "no PDF files found in any folder"

// TextSource reads page information from a document on disk.
// Pages are numbered from 1.
type TextSource interface {
	PageCount(path string) (int, error)
	PageText(path string, page int) (string, error)
}

// Engine renames every document under a directory to the name found in its
// first page.
type Engine struct {
	source   TextSource
	strategy NameStrategy
	logger   zerolog.Logger
}

// NewEngine creates an Engine. A nil strategy selects the default anchor strategy.
func NewEngine(source TextSource, strategy NameStrategy, logger zerolog.Logger) *Engine {
	if strategy == nil {
		strategy = AnchorLineStrategy{Anchor: DefaultAnchor}
	}
	return &Engine{source: source, strategy: strategy, logger: logger}
}

// IsDocument reports whether name carries the document extension, ignoring case.
func IsDocument(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), DocumentExt)
}

// RenameAll processes every document under root. Failures on a single file are
// recorded in the report and never abort the run; only an unreadable root or a
// cancelled context return an error.
func (e *Engine) RenameAll(ctx context.Context, root string) (*model.RenameReport, error) {
	report := &model.RenameReport{}

	docs, err := e.collect(root, report)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		e.record(report, model.Outcome{Kind: model.OutcomeWarning, Message: MsgNoDocuments})
		return report, nil
	}

	for _, path := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.record(report, e.renameOne(root, path))
	}

	e.logger.Info().
		Int("documents", len(docs)).
		Int("renamed", report.Count(model.OutcomeRenamed)).
		Int("already_named", report.Count(model.OutcomeAlreadyNamed)).
		Int("warnings", report.Count(model.OutcomeWarning)).
		Int("errors", report.Count(model.OutcomeError)).
		Msg("rename run finished")

	return report, nil
}

// collect lists the documents before any rename happens so that files moved
// during the run are never visited twice.
func (e *Engine) collect(root string, report *model.RenameReport) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			e.record(report, model.Outcome{
				Kind:    model.OutcomeError,
				OldPath: relPath(root, path),
				Message: fmt.Sprintf("cannot read '%s': %v", relPath(root, path), err),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsDocument(d.Name()) {
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return docs, nil
}

func (e *Engine) renameOne(root, path string) (out model.Outcome) {
	rel := relPath(root, path)

	// PDF parsers panic on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			out = errorOutcome(rel, fmt.Errorf("panic: %v", r))
		}
	}()

	pages, err := e.source.PageCount(path)
	if err != nil {
		return errorOutcome(rel, err)
	}
	if pages == 0 {
		return model.Outcome{
			Kind:    model.OutcomeWarning,
			OldPath: rel,
			Message: fmt.Sprintf("'%s' has no pages", rel),
		}
	}

	text, err := e.source.PageText(path, 1)
	if err != nil {
		return errorOutcome(rel, err)
	}
	if strings.TrimSpace(text) == "" {
		return model.Outcome{
			Kind:    model.OutcomeWarning,
			OldPath: rel,
			Message: fmt.Sprintf("could not extract text from the first page of '%s'", rel),
		}
	}

	name, ok := e.strategy.Extract(text)
	if !ok {
		return model.Outcome{
			Kind:    model.OutcomeError,
			OldPath: rel,
			Message: fmt.Sprintf("no anchor text found in '%s', not renamed", rel),
		}
	}

	stem := Sanitize(name)
	if strings.TrimSpace(stem) == "" {
		return model.Outcome{
			Kind:    model.OutcomeError,
			OldPath: rel,
			Message: fmt.Sprintf("name found in '%s' is empty after cleaning, not renamed", rel),
		}
	}

	target, same, err := freeTarget(path, stem)
	if err != nil {
		return errorOutcome(rel, err)
	}
	if same {
		return model.Outcome{
			Kind:    model.OutcomeAlreadyNamed,
			OldPath: rel,
			Message: fmt.Sprintf("'%s' already has the expected name", rel),
		}
	}

	if err := os.Rename(path, target); err != nil {
		return errorOutcome(rel, err)
	}

	newRel := relPath(root, target)
	return model.Outcome{
		Kind:    model.OutcomeRenamed,
		OldPath: rel,
		NewPath: newRel,
		Message: fmt.Sprintf("'%s' -> '%s'", rel, newRel),
	}
}

// freeTarget walks the candidates <stem>.pdf, <stem>_1.pdf, ... in the
// directory of path and returns the first one that is free. If path itself is
// reached first, the file is already correctly named and same is true.
func freeTarget(path, stem string) (target string, same bool, err error) {
	dir := filepath.Dir(path)
	current := filepath.Clean(path)

	for i := 0; ; i++ {
		name := stem + DocumentExt
		if i > 0 {
			name = stem + "_" + strconv.Itoa(i) + DocumentExt
		}
		candidate := filepath.Join(dir, name)
		if candidate == current {
			return candidate, true, nil
		}

		_, statErr := os.Lstat(candidate)
		if errors.Is(statErr, fs.ErrNotExist) {
			return candidate, false, nil
		}
		if statErr != nil {
			return "", false, fmt.Errorf("stat %s: %w", name, statErr)
		}
	}
}

func (e *Engine) record(report *model.RenameReport, o model.Outcome) {
	report.Add(o)

	var ev *zerolog.Event
	switch o.Kind {
	case model.OutcomeRenamed, model.OutcomeAlreadyNamed:
		ev = e.logger.Info()
	case model.OutcomeWarning:
		ev = e.logger.Warn()
	default:
		ev = e.logger.Error()
	}
	ev.Str("kind", string(o.Kind)).
		Str("path", o.OldPath).
		Str("new_path", o.NewPath).
		Msg(o.Message)
}

func errorOutcome(rel string, err error) model.Outcome {
	return model.Outcome{
		Kind:    model.OutcomeError,
		OldPath: rel,
		Message: fmt.Sprintf("error processing '%s': %v", rel, err),
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
