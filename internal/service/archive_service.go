package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/archive"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/rename"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/workspace"
)

const (
	// ArchiveExt is the required suffix of uploaded archive names.
	ArchiveExt = ".zip"

	// OutputArchiveName is the attachment name of the renamed archive.
	OutputArchiveName = "renombrados.zip"

	workspacePrefix = "renamepdf-"
	uploadFile      = "upload.zip"
	extractDir      = "extracted"
)

// Renamer renames the documents under a directory.
type Renamer interface {
	RenameAll(ctx context.Context, root string) (*model.RenameReport, error)
}

// ArchiveService extracts an uploaded archive, renames its documents and
// repackages them.
type ArchiveService struct {
	renamer Renamer
	workDir string
	limits  archive.Limits
	logger  zerolog.Logger
}

// NewArchiveService creates a new ArchiveService. An empty workDir uses the OS
// temporary directory.
func NewArchiveService(renamer Renamer, workDir string, limits archive.Limits, logger zerolog.Logger) *ArchiveService {
	return &ArchiveService{
		renamer: renamer,
		workDir: workDir,
		limits:  limits,
		logger:  logger,
	}
}

// ProcessArchive renames every document in the uploaded archive and returns a
// new archive holding only the documents.
// Returns ErrInvalidRequest if filename does not end in .zip.
// Returns ErrInvalidArchive if the upload is not a valid or safe zip archive.
// The scratch workspace is removed before returning on every path.
func (s *ArchiveService) ProcessArchive(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error) {
	if upload == nil || !strings.HasSuffix(filename, ArchiveExt) {
		return nil, ErrInvalidRequest
	}

	ws, err := workspace.Acquire(s.workDir, workspacePrefix)
	if err != nil {
		return nil, fmt.Errorf("acquire workspace: %w", err)
	}
	logger := s.logger.With().Str("workspace_id", ws.ID()).Str("upload", filename).Logger()
	defer func() {
		if err := ws.Release(); err != nil {
			logger.Error().Err(err).Msg("failed to remove workspace")
		}
	}()

	uploadPath := ws.Path(uploadFile)
	if err := saveUpload(uploadPath, upload); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	root, err := ws.Mkdir(extractDir)
	if err != nil {
		return nil, err
	}

	logger.Debug().Msg("extracting archive")
	if err := archive.ExtractFile(uploadPath, root, s.limits); err != nil {
		if errors.Is(err, archive.ErrInvalidArchive) ||
			errors.Is(err, archive.ErrUnsafePath) ||
			errors.Is(err, archive.ErrLimitExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}
		return nil, fmt.Errorf("extract archive: %w", err)
	}

	report, err := s.renamer.RenameAll(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("rename documents: %w", err)
	}

	var out bytes.Buffer
	entries, err := archive.CreateFromDir(root, &out, archive.ExtFilter(rename.DocumentExt))
	if err != nil {
		return nil, fmt.Errorf("create output archive: %w", err)
	}

	logger.Info().
		Int("entries", entries).
		Int("renamed", report.Count(model.OutcomeRenamed)).
		Int("already_named", report.Count(model.OutcomeAlreadyNamed)).
		Int("issues", len(report.Issues())).
		Msg("archive processed")

	return &model.ArchiveResult{
		Filename: OutputArchiveName,
		Data:     out.Bytes(),
		Report:   report,
	}, nil
}

func saveUpload(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
