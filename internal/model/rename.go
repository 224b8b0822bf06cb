package model

// OutcomeKind classifies what happened to a single document during a rename run.
type OutcomeKind string

const (
	OutcomeRenamed      OutcomeKind = "renamed"
	OutcomeAlreadyNamed OutcomeKind = "already_named"
	OutcomeWarning      OutcomeKind = "warning"
	OutcomeError        OutcomeKind = "error"
)

// Outcome is the result of processing one document, or a run-level warning.
// Paths are relative to the rename root and slash-separated.
type Outcome struct {
	Kind    OutcomeKind `json:"kind" yaml:"kind"`
	OldPath string      `json:"old_path,omitempty" yaml:"old_path,omitempty"`
	NewPath string      `json:"new_path,omitempty" yaml:"new_path,omitempty"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// RenameReport aggregates the outcomes of one rename run in processing order.
type RenameReport struct {
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Add appends an outcome to the report.
func (r *RenameReport) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Renamed returns the relative paths of every document that now carries its
// extracted name, whether it was moved in this run or already named.
func (r *RenameReport) Renamed() []string {
	paths := []string{}
	for _, o := range r.Outcomes {
		switch o.Kind {
		case OutcomeRenamed:
			paths = append(paths, o.NewPath)
		case OutcomeAlreadyNamed:
			paths = append(paths, o.OldPath)
		}
	}
	return paths
}

// Issues returns warning and error messages in processing order.
func (r *RenameReport) Issues() []string {
	msgs := []string{}
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeWarning || o.Kind == OutcomeError {
			msgs = append(msgs, o.Message)
		}
	}
	return msgs
}

// Count returns the number of outcomes of the given kind.
func (r *RenameReport) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// ArchiveResult is the output of processing one uploaded archive.
type ArchiveResult struct {
	Filename string
	Data     []byte
	Report   *RenameReport
}
