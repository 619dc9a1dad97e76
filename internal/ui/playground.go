// Package ui holds the interactive terminal views of pype.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pype/internal/transpile"
)

const maxHistory = 5

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	historyMark = dimStyle.Render("›")
)

type historyEntry struct {
	input  string
	output string
}

// PlaygroundModel re-transpiles the fragment on every keystroke and shows
// the indented result next to the final parse state.
type PlaygroundModel struct {
	input      textinput.Model
	result     transpile.Result
	history    []historyEntry
	width      int
	showSpaces bool
}

// NewPlaygroundModel returns a model seeded with initial.
func NewPlaygroundModel(initial string) *PlaygroundModel {
	ti := textinput.New()
	ti.Prompt = "{ } "
	ti.Placeholder = `if 's' in _ { out(_) } else { err(_) }`
	ti.SetValue(initial)
	ti.Focus()

	return &PlaygroundModel{
		input:  ti,
		result: transpile.Run(initial),
		width:  80,
	}
}

func (m *PlaygroundModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PlaygroundModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showSpaces = !m.showSpaces
			return m, nil
		case tea.KeyEnter:
			m.commit()
			return m, nil
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.input.Width = msg.Width - 8
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.result = transpile.Run(m.input.Value())
	return m, cmd
}

// commit moves the current fragment into the history.
func (m *PlaygroundModel) commit() {
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		return
	}
	m.history = append(m.history, historyEntry{input: value, output: m.result.Output})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.input.SetValue("")
	m.result = transpile.Run("")
}

func (m *PlaygroundModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pype playground"))
	b.WriteString(dimStyle.Render("  enter: keep · tab: show spaces · esc: quit"))
	b.WriteString("\n\n")

	for _, h := range m.history {
		fmt.Fprintf(&b, "%s %s\n", historyMark, truncate(h.input, m.width-2))
		for _, line := range strings.Split(strings.TrimRight(h.output, "\n "), "\n") {
			b.WriteString(dimStyle.Render("  " + truncate(line, m.width-2)))
			b.WriteString("\n")
		}
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(paneStyle.Render(m.renderOutput()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	return b.String()
}

func (m *PlaygroundModel) renderOutput() string {
	out := strings.TrimRight(m.result.Output, " ")
	if out == "" {
		return dimStyle.Render("(empty)")
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if m.showSpaces {
			line = showIndent(line)
		}
		lines[i] = truncate(line, m.width-6)
	}
	return strings.Join(lines, "\n")
}

func (m *PlaygroundModel) renderStatus() string {
	st := m.result.State
	if st.Balanced() {
		return okStyle.Render("✓ " + st.String())
	}
	return warnStyle.Render("! " + st.String())
}

// showIndent makes leading spaces visible.
func showIndent(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	return strings.Repeat("·", len(line)-len(trimmed)) + trimmed
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// RunPlayground starts the playground on the given terminal streams.
func RunPlayground(ctx context.Context, initial string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewPlaygroundModel(initial),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
