package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gccontent/internal/composition"
	"gccontent/internal/fasta"
	"gccontent/internal/logging"
	"gccontent/internal/report"
)

// Colors for modern design
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	accentColor  = lipgloss.Color("#F59E0B") // Amber
	surfaceColor = lipgloss.Color("#1F2937") // Dark gray
	textColor    = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor   = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor  = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)

	levelStyles = map[composition.Level]lipgloss.Style{
		composition.Low:      lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true),
		composition.Moderate: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		composition.High:     lipgloss.NewStyle().Foreground(accentColor).Bold(true),
	}

	baseStyles = map[byte]lipgloss.Style{
		'A': lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		'T': lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		'G': lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		'C': lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
	}
)

type listItem struct {
	result composition.Result
	seq    string
}

func (i listItem) FilterValue() string { return i.result.ID }

func (i listItem) Title() string {
	if i.result.ID != "" {
		return i.result.ID
	}
	return "(unnamed)"
}

func (i listItem) Description() string {
	r := i.result
	return fmt.Sprintf("%d bp    GC: %s%%    %s", r.Length, report.FormatFloat(r.GCContent),
		levelStyles[r.Level].Render(r.Level.Label()))
}

type mode int

const (
	modeComposition mode = iota
	modeSequence
	modeSummary
)

func (m mode) String() string {
	switch m {
	case modeComposition:
		return "Composition"
	case modeSequence:
		return "Sequence"
	case modeSummary:
		return "Summary"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	results       []composition.Result
	summary       composition.Summary
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	selectedIndex int
}

// newModel builds the browser state. seqs[i] is the normalized sequence
// results[i] was computed from.
func newModel(results []composition.Result, seqs []string) model {
	items := make([]list.Item, len(results))
	for i, r := range results {
		item := listItem{result: r}
		if i < len(seqs) {
			item.seq = seqs[i]
		}
		items[i] = item
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Sequences"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:        l,
		results:     results,
		summary:     composition.Summarize(results),
		currentMode: modeComposition,
	}
}

// loadInput reads a FASTA file, or a raw sequence file when raw is set, and
// analyzes it.
func loadInput(path string, raw bool) ([]composition.Result, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	text, err := fasta.DecodeText(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	var recs []fasta.Record
	if raw {
		recs = composition.FromRaw(text)
	} else {
		recs = fasta.ParseString(text)
	}
	var results []composition.Result
	var seqs []string
	for _, rec := range recs {
		if res, ok := composition.Compute(rec); ok {
			results = append(results, res)
			seqs = append(seqs, strings.ToUpper(rec.Sequence))
		}
	}
	return results, seqs, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 3
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// left panel takes 1/3 of width
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4) // Account for borders and status
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "tab":
			return m.cycleMode(), nil
		case "1":
			m.currentMode = modeComposition
			return m, nil
		case "2":
			m.currentMode = modeSequence
			return m, nil
		case "3":
			m.currentMode = modeSummary
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLeftPanel(), m.renderRightPanel())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m model) rightWidth() int {
	return m.width*2/3 - 6
}

// bar renders a horizontal bar proportional to pct.
func bar(pct float64, width int, style lipgloss.Style) string {
	if width < 1 {
		width = 1
	}
	n := int(pct / 100 * float64(width))
	return style.Render(strings.Repeat("█", n)) + labelStyle.Render(strings.Repeat("░", width-n))
}

// buildRightLines returns the detail panel content for r in the current mode.
func (m model) buildRightLines(r composition.Result, seq string) []string {
	width := m.rightWidth()
	lines := []string{
		titleStyle.Render(r.ID) + "  " + levelStyles[r.Level].Render(r.Level.Label()),
		labelStyle.Render(fmt.Sprintf("Length: %d bp    GC_Content: %s%%", r.Length, report.FormatFloat(r.GCContent))),
		"",
	}
	switch m.currentMode {
	case modeComposition:
		barWidth := width - 24
		rows := []struct {
			base byte
			pct  float64
			n    int
		}{{'A', r.PctA, r.CountA}, {'T', r.PctT, r.CountT}, {'G', r.PctG, r.CountG}, {'C', r.PctC, r.CountC}}
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("%c  %6s%% %7d  %s", row.base, report.FormatFloat(row.pct), row.n, bar(row.pct, barWidth, baseStyles[row.base])))
		}
		if other := r.Other(); other > 0 {
			lines = append(lines, labelStyle.Render(fmt.Sprintf("other characters: %d (%s%%)", other, report.FormatFloat(r.PctOther))))
		}
		lines = append(lines, "", fmt.Sprintf("GC %6s%% %7d  %s", report.FormatFloat(r.GCContent), r.CountG+r.CountC, bar(r.GCContent, barWidth, levelStyles[r.Level])))
	case modeSequence:
		if seq == "" {
			lines = append(lines, labelStyle.Render("No sequence available"))
			break
		}
		if width < 10 {
			width = 10
		}
		for len(seq) > 0 {
			n := width
			if n > len(seq) {
				n = len(seq)
			}
			var b strings.Builder
			for i := 0; i < n; i++ {
				if st, ok := baseStyles[seq[i]]; ok {
					b.WriteString(st.Render(string(seq[i])))
				} else {
					b.WriteByte(seq[i])
				}
			}
			lines = append(lines, b.String())
			seq = seq[n:]
		}
	case modeSummary:
		s := m.summary
		lines = append(lines,
			fmt.Sprintf("Sequences:   %d", s.Sequences),
			fmt.Sprintf("Total bp:    %d", s.TotalLength),
			fmt.Sprintf("Pooled GC:   %s%%", report.FormatFloat(s.PooledGC)),
			fmt.Sprintf("Mean GC:     %s%%", report.FormatFloat(s.MeanGC)),
			fmt.Sprintf("Min GC:      %s%% (%s)", report.FormatFloat(s.MinGC), s.MinGCID),
			fmt.Sprintf("Max GC:      %s%% (%s)", report.FormatFloat(s.MaxGC), s.MaxGCID),
			"",
		)
		for _, lv := range []composition.Level{composition.Low, composition.Moderate, composition.High} {
			lines = append(lines, levelStyles[lv].Render(fmt.Sprintf("%-12s", lv.Label()))+fmt.Sprintf(" %d", s.Levels[lv]))
		}
	}
	return lines
}

func (m model) renderRightPanel() string {
	panel := containerStyle.Width(m.width*2/3 - 2).Height(m.height - 4)
	if len(m.results) == 0 {
		return panel.Render("No usable sequences found")
	}
	item, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return panel.Render("No item selected")
	}
	return panel.Render(strings.Join(m.buildRightLines(item.result, item.seq), "\n"))
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d sequences", m.selectedIndex+1, len(m.results))
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode)
	rightInfo := "Press 'h' for help • 'q' to quit"

	spacing := m.width - lipgloss.Width(leftInfo) - lipgloss.Width(centerInfo) - lipgloss.Width(rightInfo) - 2
	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		statusContent = leftInfo + strings.Repeat(" ", leftSpacing) + centerInfo + strings.Repeat(" ", spacing-leftSpacing) + rightInfo
	} else {
		// Fallback for narrow terminals
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}
	return statusBarStyle.Width(m.width).Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `GC Content Browser - Help

Navigation:
  ↑/↓, j/k     Navigate list
  /            Filter sequences

View Modes:
  1            Base composition
  2            Sequence
  3            Summary of all sequences
  Tab          Next mode

General:
  h            Toggle this help
  q, Ctrl+C    Quit application

Current Mode: ` + m.currentMode.String() + `
Total Sequences: ` + fmt.Sprintf("%d", len(m.results)) + `
`
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Render(helpContent)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func main() {
	raw := flag.Bool("raw", false, "treat the input file as a raw sequence instead of FASTA")
	logFile := flag.String("log", "", "path to a log file (the terminal is used by the UI)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gccontent-tui [-raw] [-log file] <input.fasta>")
		os.Exit(2)
	}

	// the terminal belongs to the UI; logs only go to the optional file
	out, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		out = os.Stderr
	}
	logger, closeLog := logging.New(logging.Options{Out: out, File: *logFile, Timestamps: true})
	defer func() { _ = closeLog() }()

	results, seqs, err := loadInput(flag.Arg(0), *raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("loaded input", "path", flag.Arg(0), "results", len(results))

	p := tea.NewProgram(newModel(results, seqs), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("tui exited with error", "err", err)
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
