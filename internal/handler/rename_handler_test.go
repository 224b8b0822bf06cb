package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
)

// mockArchiveService is a mock implementation of ArchiveServiceInterface.
type mockArchiveService struct {
	processFn func(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error)
	calls     int
}

func (m *mockArchiveService) ProcessArchive(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error) {
	m.calls++
	if m.processFn != nil {
		return m.processFn(ctx, filename, upload)
	}
	return &model.ArchiveResult{Filename: service.OutputArchiveName}, nil
}

func setupRenameApp(mockSvc *mockArchiveService) *fiber.App {
	app := fiber.New()
	h := NewRenameHandler(mockSvc)
	app.Post("/api/renamePDF", h.RenamePDF)
	return app
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/renamePDF", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result["error"]
}

func TestRenamePDF_Success(t *testing.T) {
	report := &model.RenameReport{}
	report.Add(model.Outcome{Kind: model.OutcomeRenamed, OldPath: "a.pdf", NewPath: "X Y.pdf"})
	report.Add(model.Outcome{Kind: model.OutcomeRenamed, OldPath: "b.pdf", NewPath: "X Y_1.pdf"})
	report.Add(model.Outcome{Kind: model.OutcomeAlreadyNamed, OldPath: "Ana.pdf", NewPath: "Ana.pdf"})
	report.Add(model.Outcome{Kind: model.OutcomeError, OldPath: "c.pdf", Message: "no anchor text found in 'c.pdf', not renamed"})

	var gotName string
	var gotContent []byte
	mockSvc := &mockArchiveService{
		processFn: func(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error) {
			gotName = filename
			data, err := io.ReadAll(upload)
			if err != nil {
				return nil, err
			}
			gotContent = data
			return &model.ArchiveResult{
				Filename: service.OutputArchiveName,
				Data:     []byte("PK-renamed"),
				Report:   report,
			}, nil
		},
	}
	app := setupRenameApp(mockSvc)

	resp, err := app.Test(multipartRequest(t, UploadField, "batch.zip", []byte("PK-upload")))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "batch.zip", gotName)
	assert.Equal(t, []byte("PK-upload"), gotContent)

	assert.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="renombrados.zip"`)
	assert.Equal(t, "2", resp.Header.Get(HeaderRenamedCount))
	assert.Equal(t, "1", resp.Header.Get(HeaderAlreadyNamedCount))
	assert.Equal(t, "1", resp.Header.Get(HeaderIssueCount))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK-renamed"), body)
}

func TestRenamePDF_MissingFile(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{name: "no file part", field: ""},
		{name: "wrong field name", field: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockArchiveService{}
			app := setupRenameApp(mockSvc)

			resp, err := app.Test(multipartRequest(t, tt.field, "batch.zip", []byte("PK")))
			require.NoError(t, err)
			defer func() {
				_ = resp.Body.Close()
			}()

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "zip file not found in request, field must be named 'zip_file'", decodeError(t, resp))
			assert.Zero(t, mockSvc.calls)
		})
	}
}

func TestRenamePDF_NotMultipart(t *testing.T) {
	mockSvc := &mockArchiveService{}
	app := setupRenameApp(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/renamePDF", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, mockSvc.calls)
}

func TestRenamePDF_WrongExtension(t *testing.T) {
	mockSvc := &mockArchiveService{}
	app := setupRenameApp(mockSvc)

	resp, err := app.Test(multipartRequest(t, UploadField, "batch.rar", []byte("Rar!")))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "uploaded file is not a zip archive", decodeError(t, resp))
	assert.Zero(t, mockSvc.calls)
}

func TestRenamePDF_InvalidArchive(t *testing.T) {
	mockSvc := &mockArchiveService{
		processFn: func(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error) {
			return nil, fmt.Errorf("%w: zip: not a valid zip file", service.ErrInvalidArchive)
		},
	}
	app := setupRenameApp(mockSvc)

	resp, err := app.Test(multipartRequest(t, UploadField, "batch.zip", []byte("garbage")))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "uploaded file is not a valid zip archive or is corrupt", decodeError(t, resp))
}

func TestRenamePDF_InternalServerError(t *testing.T) {
	mockSvc := &mockArchiveService{
		processFn: func(ctx context.Context, filename string, upload io.Reader) (*model.ArchiveResult, error) {
			return nil, errors.New("acquire workspace: disk full")
		},
	}
	app := setupRenameApp(mockSvc)

	resp, err := app.Test(multipartRequest(t, UploadField, "batch.zip", []byte("PK")))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeError(t, resp))
}
