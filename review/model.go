package review

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model for the pre-write review editor. The
// generated program is shown in a fullscreen textarea; the user can
// touch it up before it goes to disk, or throw the run away.
type Model struct {
	textarea textarea.Model
	title    string

	width  int
	height int
	ready  bool

	accepted bool
}

func New(title, content string) Model {
	ta := textarea.New()
	// generated programs easily exceed the textarea defaults
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.MaxWidth = 0
	ta.ShowLineNumbers = true
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.SetValue(content)
	ta.Focus()

	return Model{textarea: ta, title: title}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlS:
			m.accepted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.accepted = false
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width)
		m.textarea.SetHeight(msg.Height - 2)
		m.ready = true
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading editor..."
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Width(m.width).Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Ctrl+S write • Esc discard"))
	return b.String()
}

// Value returns the current editor text.
func (m Model) Value() string { return m.textarea.Value() }

// Accepted reports whether the user chose to keep the text.
func (m Model) Accepted() bool { return m.accepted }

// Edit opens content in a fullscreen editor and blocks until the user
// accepts or discards. It returns the possibly edited text and whether
// the user accepted it; a discard returns the input unchanged.
func Edit(title, content string) (string, bool, error) {
	p := tea.NewProgram(New(title, content), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return content, false, err
	}
	m, ok := final.(Model)
	if !ok || !m.Accepted() {
		return content, false, nil
	}
	return m.Value(), true, nil
}
