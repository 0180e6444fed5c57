// Package output renders command results as JSON, YAML or aligned tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

// Printer writes structured results to Out and status lines to Err, so Out
// stays machine-readable.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format string
}

func New(out, errw io.Writer, format string) *Printer {
	if format == "" {
		format = FormatJSON
	}
	return &Printer{Out: out, Err: errw, Format: format}
}

func (p *Printer) Success(format string, a ...interface{}) {
	successColor.Fprintf(p.Err, "✓ "+format+"\n", a...)
}

func (p *Printer) Error(format string, a ...interface{}) {
	errorColor.Fprintf(p.Err, "✗ "+format+"\n", a...)
}

func (p *Printer) Warn(format string, a ...interface{}) {
	warnColor.Fprintf(p.Err, "⚠ "+format+"\n", a...)
}

func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) YAML(v interface{}) error {
	enc := yaml.NewEncoder(p.Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Print renders v in the printer's format. table builds the table view and is
// only called for FormatTable.
func (p *Printer) Print(v interface{}, table func() *Table) error {
	switch p.Format {
	case FormatJSON:
		return p.JSON(v)
	case FormatYAML:
		return p.YAML(v)
	case FormatTable:
		if table == nil {
			return fmt.Errorf("table output not supported for this command")
		}
		table().Render(p.Out)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.Format)
	}
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow appends a row. Cells beyond the header count are dropped.
func (t *Table) AddRow(row ...string) {
	if len(row) > len(t.headers) {
		row = row[:len(t.headers)]
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Render(w io.Writer) {
	// Calculate column widths
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}

	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i, cell := range row {
			fmt.Fprintf(w, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}
