package export

import (
	"io"
	"strings"

	"github.com/joescharf/asana-dump/internal/models"
)

// Header is the first line of every export file. It names a Remarks
// column that rows only fill when RowWriter.Remarks is set.
var Header = []string{"Workspace", "Team", "Asana ID", "Project", "Status", "Owner", "Start Date", "Due Date", "Remarks"}

// RowWriter writes always-quoted, comma-separated lines. Each line is
// handed to the underlying writer in a single Write call so a file is
// never left with half a row.
type RowWriter struct {
	w io.Writer

	// Raw disables quote doubling, reproducing the legacy output where an
	// embedded quote breaks the cell.
	Raw bool
	// Remarks appends an empty cell so rows match the header width.
	Remarks bool
}

// NewRowWriter returns a RowWriter on w.
func NewRowWriter(w io.Writer) *RowWriter {
	return &RowWriter{w: w}
}

// WriteHeader writes the fixed header line.
func (rw *RowWriter) WriteHeader() error {
	return rw.writeLine(Header)
}

// WriteRow writes one export row.
func (rw *RowWriter) WriteRow(r models.ExportRow) error {
	fields := r.Fields()
	if rw.Remarks {
		fields = append(fields, "")
	}
	return rw.writeLine(fields)
}

func (rw *RowWriter) writeLine(fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		if rw.Raw {
			b.WriteString(f)
		} else {
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		}
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(rw.w, b.String())
	return err
}
