package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/model"
)

// summary is the YAML document written by -report.
type summary struct {
	Root         string          `yaml:"root"`
	Renamed      int             `yaml:"renamed"`
	AlreadyNamed int             `yaml:"already_named"`
	Warnings     int             `yaml:"warnings"`
	Errors       int             `yaml:"errors"`
	Outcomes     []model.Outcome `yaml:"outcomes"`
}

func newSummary(root string, r *model.RenameReport) summary {
	return summary{
		Root:         root,
		Renamed:      r.Count(model.OutcomeRenamed),
		AlreadyNamed: r.Count(model.OutcomeAlreadyNamed),
		Warnings:     r.Count(model.OutcomeWarning),
		Errors:       r.Count(model.OutcomeError),
		Outcomes:     r.Outcomes,
	}
}

func writeYAML(path string, s summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var (
	green  = color.New(color.FgGreen)
	cyan   = color.New(color.FgCyan)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.FgWhite, color.Bold)
)

// printReport writes one line per outcome followed by the totals.
func printReport(w io.Writer, r *model.RenameReport) {
	for _, o := range r.Outcomes {
		switch o.Kind {
		case model.OutcomeRenamed:
			green.Fprint(w, "RENAMED ")
			fmt.Fprintf(w, "%s -> %s\n", o.OldPath, o.NewPath)
		case model.OutcomeAlreadyNamed:
			cyan.Fprint(w, "OK      ")
			fmt.Fprintln(w, o.OldPath)
		case model.OutcomeWarning:
			yellow.Fprint(w, "WARNING ")
			fmt.Fprintln(w, o.Message)
		case model.OutcomeError:
			red.Fprint(w, "ERROR   ")
			fmt.Fprintln(w, o.Message)
		}
	}

	bold.Fprintf(w, "\n%d renamed, %d already named, %d warnings, %d errors\n",
		r.Count(model.OutcomeRenamed),
		r.Count(model.OutcomeAlreadyNamed),
		r.Count(model.OutcomeWarning),
		r.Count(model.OutcomeError))
}
