package rename

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
)

// fakeSource treats each fixture file's content as its first-page text.
// A few directives simulate broken documents.
type fakeSource struct{}

func (fakeSource) PageCount(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	switch string(data) {
	case "#no-pages":
		return 0, nil
	case "#broken":
		return 0, errors.New("malformed xref table")
	case "#panic":
		panic("unexpected EOF in content stream")
	}
	return 1, nil
}

func (fakeSource) PageText(path string, page int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func docText(name string) string {
	return "CONSTANCIA\n" + name + "\n" + DefaultAnchor + "\nCURP"
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func newTestEngine() *Engine {
	return NewEngine(fakeSource{}, nil, zerolog.Nop())
}

func TestEngine_RenameAll_NestedTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", docText("X Y"))
	writeFile(t, root, "group1/scan 01.PDF", docText("MARIA LOPEZ"))
	writeFile(t, root, "group1/deep/scan.pdf", docText("ANA: RUIZ?"))
	writeFile(t, root, "group1/notes.txt", docText("IGNORED"))

	report, err := newTestEngine().RenameAll(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Count(model.OutcomeRenamed))
	assert.Empty(t, report.Issues())
	assert.Equal(t, []string{
		"X Y.pdf",
		"group1/MARIA LOPEZ.pdf",
		"group1/deep/ANA RUIZ.pdf",
		"group1/notes.txt",
	}, sortedCopy(listFiles(t, root)))

	renamed := sortedCopy(report.Renamed())
	assert.Equal(t, []string{"X Y.pdf", "group1/MARIA LOPEZ.pdf", "group1/deep/ANA RUIZ.pdf"}, renamed)
}

func TestEngine_RenameAll_CollisionSuffixes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Juan Perez.pdf", docText("Juan Perez"))
	writeFile(t, root, "a.pdf", docText("Juan Perez"))
	writeFile(t, root, "b.pdf", docText("Juan Perez"))

	report, err := newTestEngine().RenameAll(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, model.Outcome{
		Kind:    model.OutcomeAlreadyNamed,
		OldPath: "Juan Perez.pdf",
		Message: "'Juan Perez.pdf' already has the expected name",
	}, report.Outcomes[0])
	assert.Equal(t, model.OutcomeRenamed, report.Outcomes[1].Kind)
	assert.Equal(t, "a.pdf", report.Outcomes[1].OldPath)
	assert.Equal(t, "Juan Perez_1.pdf", report.Outcomes[1].NewPath)
	assert.Equal(t, model.OutcomeRenamed, report.Outcomes[2].Kind)
	assert.Equal(t, "b.pdf", report.Outcomes[2].OldPath)
	assert.Equal(t, "Juan Perez_2.pdf", report.Outcomes[2].NewPath)

	assert.Equal(t, []string{"Juan Perez.pdf", "Juan Perez_1.pdf", "Juan Perez_2.pdf"}, listFiles(t, root))
}

func TestEngine_RenameAll_CollisionStaysInDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one/x.pdf", docText("Same Name"))
	writeFile(t, root, "two/y.pdf", docText("Same Name"))

	_, err := newTestEngine().RenameAll(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"one/Same Name.pdf", "two/Same Name.pdf"}, listFiles(t, root))
}

func TestEngine_RenameAll_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", docText("Juan Perez"))
	writeFile(t, root, "b.pdf", docText("Juan Perez"))
	writeFile(t, root, "sub/c.pdf", docText("Rosa Diaz"))

	engine := newTestEngine()
	first, err := engine.RenameAll(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 3, first.Count(model.OutcomeRenamed))
	afterFirst := listFiles(t, root)

	second, err := engine.RenameAll(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, second.Count(model.OutcomeAlreadyNamed))
	assert.Zero(t, second.Count(model.OutcomeRenamed))
	assert.Zero(t, second.Count(model.OutcomeError))
	assert.Zero(t, second.Count(model.OutcomeWarning))
	assert.Equal(t, afterFirst, listFiles(t, root))
}

func TestEngine_RenameAll_PerFileIssues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "01-empty.pdf", "#no-pages")
	writeFile(t, root, "02-blank.pdf", "   \n  ")
	writeFile(t, root, "03-noanchor.pdf", "just some text\nwithout the label")
	writeFile(t, root, "04-broken.pdf", "#broken")
	writeFile(t, root, "05-panic.pdf", "#panic")
	writeFile(t, root, "06-symbols.pdf", docText(`<?>`))
	writeFile(t, root, "07-good.pdf", docText("Luis Mora"))

	report, err := newTestEngine().RenameAll(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 7)

	kinds := make([]model.OutcomeKind, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		kinds = append(kinds, o.Kind)
	}
	assert.Equal(t, []model.OutcomeKind{
		model.OutcomeWarning,
		model.OutcomeWarning,
		model.OutcomeError,
		model.OutcomeError,
		model.OutcomeError,
		model.OutcomeError,
		model.OutcomeRenamed,
	}, kinds)

	issues := report.Issues()
	require.Len(t, issues, 6)
	assert.Equal(t, "'01-empty.pdf' has no pages", issues[0])
	assert.Equal(t, "could not extract text from the first page of '02-blank.pdf'", issues[1])
	assert.Equal(t, "no anchor text found in '03-noanchor.pdf', not renamed", issues[2])
	assert.Contains(t, issues[3], "04-broken.pdf")
	assert.Contains(t, issues[3], "malformed xref table")
	assert.Contains(t, issues[4], "05-panic.pdf")
	assert.Contains(t, issues[5], "06-symbols.pdf")

	// Only the good document moved; everything else keeps its original name.
	assert.Equal(t, []string{
		"01-empty.pdf",
		"02-blank.pdf",
		"03-noanchor.pdf",
		"04-broken.pdf",
		"05-panic.pdf",
		"06-symbols.pdf",
		"Luis Mora.pdf",
	}, listFiles(t, root))
	assert.Equal(t, []string{"Luis Mora.pdf"}, report.Renamed())
}

func TestEngine_RenameAll_NoDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.txt", "hello")
	writeFile(t, root, "sub/image.jpg", "jpeg")

	report, err := newTestEngine().RenameAll(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, report.Renamed())
	assert.Equal(t, []string{MsgNoDocuments}, report.Issues())
}

func TestEngine_RenameAll_EmptyRoot(t *testing.T) {
	report, err := newTestEngine().RenameAll(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{MsgNoDocuments}, report.Issues())
}

func TestEngine_RenameAll_MissingRoot(t *testing.T) {
	report, err := newTestEngine().RenameAll(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestEngine_RenameAll_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", docText("Juan Perez"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestEngine().RenameAll(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, []string{"a.pdf"}, listFiles(t, root), "nothing renamed after cancellation")
}

type upperStrategy struct{}

func (upperStrategy) Extract(text string) (string, bool) {
	first, _, _ := strings.Cut(text, "\n")
	return strings.ToUpper(first), first != ""
}

func TestEngine_RenameAll_CustomStrategy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.pdf", "pedro paramo\nrest")

	engine := NewEngine(fakeSource{}, upperStrategy{}, zerolog.Nop())
	report, err := engine.RenameAll(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"PEDRO PARAMO.pdf"}, report.Renamed())
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("a.pdf"))
	assert.True(t, IsDocument("A.PDF"))
	assert.True(t, IsDocument("dir.with.dots.Pdf"))
	assert.False(t, IsDocument("a.pdf.txt"))
	assert.False(t, IsDocument("pdf"))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
