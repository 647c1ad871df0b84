package audit

// FileReport is the ordered issue list for one document. ReadError is set
// when the file could not be read at all; such a failure never aborts the
// rest of the run.
type FileReport struct {
	Path      string  `json:"path"`
	Issues    []Issue `json:"issues,omitempty"`
	ReadError string  `json:"readError,omitempty"`
}

// Errors counts the error-severity issues in the report.
func (r *FileReport) Errors() int { return r.count(SeverityError) }

// Warnings counts the warning-severity issues in the report.
func (r *FileReport) Warnings() int { return r.count(SeverityWarning) }

func (r *FileReport) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Summary aggregates a whole audit run.
type Summary struct {
	FilesChecked     int `json:"filesChecked"`
	FilesWithErrors  int `json:"filesWithErrors"`
	FilesWithWarning int `json:"filesWithWarnings"`
	TotalErrors      int `json:"totalErrors"`
	TotalWarnings    int `json:"totalWarnings"`
	ReadFailures     int `json:"readFailures"`
}

// Summarize folds per-file reports into run totals.
func Summarize(reports []FileReport) Summary {
	var s Summary
	for i := range reports {
		r := &reports[i]
		s.FilesChecked++
		if r.ReadError != "" {
			s.ReadFailures++
			continue
		}
		errs, warns := r.Errors(), r.Warnings()
		if errs > 0 {
			s.FilesWithErrors++
		}
		if warns > 0 {
			s.FilesWithWarning++
		}
		s.TotalErrors += errs
		s.TotalWarnings += warns
	}
	return s
}
