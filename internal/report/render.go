// Package report renders GVIF results for terminals and files.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/jedib0t/go-pretty/v6/table"

	"gvif/domain/stats/gvif"
	"gvif/internal/errors"
)

// Supported formats
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var header = []string{gvif.LabelFactor, gvif.LabelGVIF, gvif.LabelGVIFNorm, gvif.LabelGVIFNormSq, gvif.LabelDf}

// Sink renders every result it receives to W
type Sink struct {
	W      io.Writer
	Format string
}

// WriteResult implements ports.ResultSinkPort
func (s Sink) WriteResult(_ context.Context, res *gvif.Result) error {
	return Render(s.W, res, s.Format)
}

// Render writes res to w in the given format
func Render(w io.Writer, res *gvif.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, res)
	case FormatCSV:
		return renderCSV(w, res)
	case FormatMarkdown, "md":
		return renderMarkdown(w, res)
	case FormatHTML:
		return renderHTML(w, res)
	case FormatTable, "":
		return renderTable(w, res)
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unsupported output format %q", format))
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// computedAt formats the computation time in UTC, empty when unset
func computedAt(res *gvif.Result) string {
	if res.ComputedAt.IsZero() {
		return ""
	}
	return res.ComputedAt.Time().UTC().Format(time.RFC3339)
}

func cells(row gvif.Row) []string {
	return []string{
		row.Factor,
		formatValue(row.GVIF),
		formatValue(row.GVIFNorm),
		formatValue(row.GVIFNormSq),
		strconv.Itoa(row.Df),
	}
}

func renderTable(w io.Writer, res *gvif.Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, col := range header {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range res.Rows {
		r := make(table.Row, 0, len(header))
		for _, c := range cells(row) {
			r = append(r, c)
		}
		t.AppendRow(r)
	}
	t.AppendFooter(table.Row{"rows", res.SampleSize, "encoded", res.Encoded, ""})
	t.Render()

	_, _ = fmt.Fprintf(w, "\nrun %s  data %s", res.RunID, res.Fingerprint.Short())
	if at := computedAt(res); at != "" {
		_, _ = fmt.Fprintf(w, "  computed %s", at)
	}
	_, _ = fmt.Fprintln(w)
	return writeFlaggedText(w, res)
}

func writeFlaggedText(w io.Writer, res *gvif.Result) error {
	names := res.FlaggedNames()
	if len(names) == 0 {
		_, err := fmt.Fprintf(w, "No factors with %s >= %g\n", gvif.LabelGVIFNormSq, res.Threshold)
		return err
	}
	if _, err := fmt.Fprintf(w, "Flagged (%s >= %g):\n", gvif.LabelGVIFNormSq, res.Threshold); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %s\t%s\n", name, formatValue(res.Flagged[name])); err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, res *gvif.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func renderCSV(w io.Writer, res *gvif.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, header...), "flagged")); err != nil {
		return err
	}
	for _, row := range res.Rows {
		record := append(cells(row), strconv.FormatBool(res.IsFlagged(row.Factor)))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown returns the result as a Markdown document
func Markdown(res *gvif.Result) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# GVIF report\n\n")
	fmt.Fprintf(&b, "- run: `%s`\n", res.RunID)
	fmt.Fprintf(&b, "- data: `%s`\n", res.Fingerprint.Short())
	if at := computedAt(res); at != "" {
		fmt.Fprintf(&b, "- computed: %s\n", at)
	}
	fmt.Fprintf(&b, "- rows: %d, encoded columns: %d\n\n", res.SampleSize, res.Encoded)

	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", header[0], header[1], header[2], header[3], header[4])
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, row := range res.Rows {
		c := cells(row)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", c[0], c[1], c[2], c[3], c[4])
	}

	fmt.Fprintf(&b, "\n## Flagged (%s >= %g)\n\n", gvif.LabelGVIFNormSq, res.Threshold)
	names := res.FlaggedNames()
	if len(names) == 0 {
		b.WriteString("None.\n")
	}
	for _, name := range names {
		fmt.Fprintf(&b, "- **%s**: %s\n", name, formatValue(res.Flagged[name]))
	}
	return b.Bytes()
}

func renderMarkdown(w io.Writer, res *gvif.Result) error {
	_, err := w.Write(Markdown(res))
	return err
}

func renderHTML(w io.Writer, res *gvif.Result) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(Markdown(res))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "GVIF report",
	})
	_, err := w.Write(markdown.Render(doc, renderer))
	return err
}
