// Command renamepdf renames every PDF under a directory after the name printed
// above the form label on its first page.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/pdftext"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/rename"
)

// Exit codes.
const (
	exitOK     = 0
	exitIssues = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("renamepdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "Directory tree containing the PDF files to rename")
	reportFile := fs.String("report", "", "Write a YAML report of every outcome to this path")
	anchor := fs.String("anchor", rename.DefaultAnchor, "Label printed on the line below the name")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	verbose := fs.Bool("verbose", false, "Log every step to stderr")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *dir == "" && fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}
	if *dir == "" {
		fmt.Fprintln(stderr, "error: -dir is required")
		fs.Usage()
		return exitUsage
	}

	if *noColor || !isTerminal(stdout) {
		color.NoColor = true
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: color.NoColor}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	engine := rename.NewEngine(pdftext.New(logger), rename.AnchorLineStrategy{Anchor: *anchor}, logger)
	report, err := engine.RenameAll(ctx, *dir)
	if report != nil {
		printReport(stdout, report)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitIssues
	}

	if *reportFile != "" {
		if err := writeYAML(*reportFile, newSummary(*dir, report)); err != nil {
			fmt.Fprintf(stderr, "error: write report: %v\n", err)
			return exitIssues
		}
	}

	if report.Count(model.OutcomeError) > 0 {
		return exitIssues
	}
	return exitOK
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
