// Package report renders composition results for export: CSV in the
// established column layout, JSON, and a terminal table.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gccontent/internal/composition"
)

// CSVFileName is the suggested name for downloaded CSV exports.
const CSVFileName = "gc_content_results.csv"

// Header is the CSV column layout. Downstream consumers depend on the exact
// names and order.
var Header = []string{"Sequence_ID", "Length", "A%", "T%", "G%", "C%", "GC_Content (%)", "GC Level"}

// FormatFloat renders a percentage the way the exported tables always have:
// shortest representation, with a trailing ".0" for whole numbers.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Row returns the CSV cells for r, in Header order.
func Row(r composition.Result) []string {
	return []string{
		r.ID,
		strconv.Itoa(r.Length),
		FormatFloat(r.PctA),
		FormatFloat(r.PctT),
		FormatFloat(r.PctG),
		FormatFloat(r.PctC),
		FormatFloat(r.GCContent),
		r.Level.Label(),
	}
}

// WriteCSV writes the header and one row per result.
func WriteCSV(w io.Writer, results []composition.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("write csv row %q: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON export layout.
type Document struct {
	Results []composition.Result `json:"results"`
	Summary composition.Summary  `json:"summary"`
}

// WriteJSON writes results and their summary as indented JSON.
func WriteJSON(w io.Writer, results []composition.Result) error {
	if results == nil {
		results = []composition.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Results: results, Summary: composition.Summarize(results)})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	levelStyles = map[composition.Level]lipgloss.Style{
		composition.Low:      cellStyle.Foreground(lipgloss.Color("#60A5FA")),
		composition.Moderate: cellStyle.Foreground(lipgloss.Color("#10B981")),
		composition.High:     cellStyle.Foreground(lipgloss.Color("#F59E0B")),
	}
)

// Table renders results as a bordered terminal table.
func Table(results []composition.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, Row(r))
	}
	levelCol := len(Header) - 1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(Header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == levelCol && row >= 0 && row < len(results) {
				return levelStyles[results[row].Level]
			}
			return cellStyle
		})
	return t.String()
}

// WriteTable writes Table(results) followed by a one-line summary.
func WriteTable(w io.Writer, results []composition.Result) error {
	s := composition.Summarize(results)
	_, err := fmt.Fprintf(w, "%s\n%d sequences, %d bp, pooled GC %s%%, mean GC %s%%\n",
		Table(results), s.Sequences, s.TotalLength, FormatFloat(s.PooledGC), FormatFloat(s.MeanGC))
	return err
}
