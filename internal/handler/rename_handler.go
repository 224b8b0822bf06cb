package handler

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
)

// UploadField is the multipart field carrying the zip archive.
const UploadField = "zip_file"

// Response headers summarising a rename run.
const (
	HeaderRenamedCount      = "X-Renamed-Count"
	HeaderAlreadyNamedCount = "X-Already-Named-Count"
	HeaderIssueCount        = "X-Issue-Count"
)

// ArchiveServiceInterface defines the interface for archive rename logic.
type ArchiveServiceInterface interface {
	ProcessArchive(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error)
}

// RenameHandler handles HTTP requests for bulk PDF renaming.
type RenameHandler struct {
	service ArchiveServiceInterface
}

// NewRenameHandler creates a new RenameHandler with the given service.
func NewRenameHandler(svc ArchiveServiceInterface) *RenameHandler {
	return &RenameHandler{service: svc}
}

// RenamePDF handles POST /api/renamePDF requests. The response body is the
// renamed archive; per-file issues are only summarised in headers and logs.
func (h *RenameHandler) RenamePDF(c *fiber.Ctx) error {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "zip file not found in request, field must be named '" + UploadField + "'",
		})
	}
	if !strings.HasSuffix(fh.Filename, service.ArchiveExt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uploaded file is not a zip archive"})
	}

	f, err := fh.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fh.Filename).Msg("failed to open upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	defer f.Close()

	result, err := h.service.ProcessArchive(c.Context(), fh.Filename, f)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uploaded file is not a zip archive"})
		}
		if errors.Is(err, service.ErrInvalidArchive) {
			log.Warn().Err(err).Str("filename", fh.Filename).Msg("rejected invalid archive")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "uploaded file is not a valid zip archive or is corrupt",
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("filename", fh.Filename).
			Msg("failed to process archive")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	report := result.Report
	if report == nil {
		report = &model.RenameReport{}
	}
	c.Set(HeaderRenamedCount, strconv.Itoa(report.Count(model.OutcomeRenamed)))
	c.Set(HeaderAlreadyNamedCount, strconv.Itoa(report.Count(model.OutcomeAlreadyNamed)))
	c.Set(HeaderIssueCount, strconv.Itoa(len(report.Issues())))

	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("filename", fh.Filename).
		Int("bytes", len(result.Data)).
		Msg("renamed archive sent")

	c.Attachment(result.Filename)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Status(fiber.StatusOK).Send(result.Data)
}
