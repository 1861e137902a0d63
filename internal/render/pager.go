package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/reflow/wordwrap"
)

var (
	pagerTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	pagerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	pagerMatchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	pagerMissStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	pagerLiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
)

// RenderFunc produces the pager content.
type RenderFunc func() (string, error)

// Page shows content in a full-screen pager until the user quits.
func Page(title, content string) error {
	_, err := tea.NewProgram(newPagerModel(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// PageLive shows render's output and re-renders whenever path changes.
func PageLive(title, path string, render RenderFunc) error {
	content, err := render()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}

	m := newPagerModel(title, content)
	m.render = render
	m.watcher = watcher
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// reloadMsg is sent when the watched file changes.
type reloadMsg struct{}

type pagerModel struct {
	viewport viewport.Model
	title    string
	content  string
	wrapped  string // content wrapped to the viewport width; search runs on this
	ready    bool

	render  RenderFunc
	watcher *fsnotify.Watcher
	loadErr error

	searching bool
	input     textinput.Model
	query     string
	matches   []int // wrapped line numbers
	current   int
	missed    bool
}

func newPagerModel(title, content string) *pagerModel {
	return &pagerModel{title: title, content: content}
}

func (m *pagerModel) live() bool {
	return m.watcher != nil
}

func (m *pagerModel) Init() tea.Cmd {
	if m.live() {
		return m.waitForChange()
	}
	return nil
}

// waitForChange blocks until the watched file is written.
func (m *pagerModel) waitForChange() tea.Cmd {
	w := m.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Let a burst of writes settle.
					time.Sleep(100 * time.Millisecond)
					return reloadMsg{}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (m *pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearch(msg)
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case reloadMsg:
		m.reload()
		cmds = append(cmds, m.waitForChange())

	case tea.KeyMsg:
		if quit, cmd := m.handleKey(msg.String()); quit || cmd != nil {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey applies a navigation key. It reports true when the key ends
// the update, with the command to return.
func (m *pagerModel) handleKey(key string) (bool, tea.Cmd) {
	switch key {
	case "", "ctrl", "alt", "shift", "super":
		return true, nil
	case "q", "ctrl+c":
		return true, tea.Quit
	case "esc":
		if m.query == "" {
			return true, tea.Quit
		}
		m.clearSearch()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	case "f", "F":
		if m.live() {
			m.viewport.GotoBottom()
		}
	case "/":
		m.searching = true
		m.input = textinput.New()
		m.input.Placeholder = "Search..."
		m.input.CharLimit = 100
		m.input.Width = 40
		m.input.SetValue(m.query)
		m.input.Focus()
		return true, textinput.Blink
	case "n":
		if len(m.matches) > 0 {
			m.jump((m.current + 1) % len(m.matches))
		}
	case "N":
		if len(m.matches) > 0 {
			m.jump((m.current - 1 + len(m.matches)) % len(m.matches))
		}
	}
	return false, nil
}

func (m *pagerModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.searching = false
			m.query = m.input.Value()
			m.search()
			if len(m.matches) > 0 {
				m.jump(0)
			}
			return m, nil
		case "esc", "ctrl+c":
			m.searching = false
			m.clearSearch()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *pagerModel) resize(width, height int) {
	const chrome = 2 // header + footer
	if !m.ready {
		m.viewport = viewport.New(width, height-chrome)
		m.viewport.YPosition = 1
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - chrome
	}
	m.setContent(m.content)
}

// reload re-renders and keeps the scroll position where it still fits.
func (m *pagerModel) reload() {
	if m.render == nil {
		return
	}
	content, err := m.render()
	m.loadErr = err
	if err != nil {
		return
	}
	offset := m.viewport.YOffset
	m.setContent(content)
	if offset <= m.viewport.TotalLineCount()-m.viewport.Height {
		m.viewport.SetYOffset(offset)
	}
}

func (m *pagerModel) setContent(content string) {
	m.content = content
	m.wrapped = wrapContent(content, m.viewport.Width)
	m.viewport.SetContent(m.wrapped)
	if m.query != "" {
		m.search()
	}
}

func (m *pagerModel) clearSearch() {
	m.query = ""
	m.matches = nil
	m.missed = false
}

// search records every wrapped line containing the query, ignoring case.
func (m *pagerModel) search() {
	m.matches = nil
	m.current = 0
	m.missed = false
	if m.query == "" {
		return
	}
	q := strings.ToLower(m.query)
	for i, l := range strings.Split(m.wrapped, "\n") {
		if strings.Contains(strings.ToLower(l), q) {
			m.matches = append(m.matches, i)
		}
	}
	m.missed = len(m.matches) == 0
}

// jump centres match i in the viewport.
func (m *pagerModel) jump(i int) {
	if i < 0 || i >= len(m.matches) {
		return
	}
	m.current = i
	offset := m.matches[i] - m.viewport.Height/2
	limit := m.viewport.TotalLineCount() - m.viewport.Height
	offset = min(offset, limit)
	m.viewport.SetYOffset(max(offset, 0))
}

func (m *pagerModel) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	title := pagerTitleStyle.Render(m.title)
	header := lipgloss.JoinHorizontal(lipgloss.Center, title,
		pagerInfoStyle.Render(strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))))

	if m.searching {
		return header + "\n" + m.viewport.View() + "\n" + pagerMatchStyle.Render("/") + m.input.View()
	}

	info := fmt.Sprintf(" %d%% ", int(m.viewport.ScrollPercent()*100))
	var help string
	switch {
	case m.loadErr != nil:
		help = fmt.Sprintf(" %s │ q: quit ", pagerMissStyle.Render("reload failed: "+truncateContent(m.loadErr.Error(), 60)))
	case m.missed:
		help = fmt.Sprintf(" %s │ /: search ", pagerMissStyle.Render("Pattern not found"))
	case len(m.matches) > 0:
		help = fmt.Sprintf(" %s │ n/N: next/prev │ /: search │ esc: clear ",
			pagerMatchStyle.Render(fmt.Sprintf("[%d/%d]", m.current+1, len(m.matches))))
	case m.live():
		help = fmt.Sprintf(" %s │ q: quit │ /: search │ f: follow │ g/G: top/bottom ", pagerLiveStyle.Render("● LIVE"))
	default:
		help = " q: quit │ /: search │ n/N: next/prev │ g/G: top/bottom "
	}
	fill := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(help)-lipgloss.Width(info)))
	footer := pagerInfoStyle.Render(help) + pagerInfoStyle.Render(fill) + pagerInfoStyle.Render(info)

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// wrapContent wraps lines wider than width. Timeline rows keep their index
// column and continue under the content column.
func wrapContent(content string, width int) string {
	if width <= 0 {
		return content
	}

	var out []string
	for _, l := range strings.Split(content, "\n") {
		if lipgloss.Width(l) <= width {
			out = append(out, l)
			continue
		}

		if sep := strings.Index(l, "│ "); sep >= 0 {
			start := sep + len("│ ")
			// Keep nesting indent as part of the prefix.
			for start < len(l) && l[start] == ' ' {
				start++
			}
			prefix := l[:start]
			prefixWidth := lipgloss.Width(prefix)
			avail := max(width-prefixWidth, 20)

			parts := strings.Split(wordwrap.String(l[start:], avail), "\n")
			out = append(out, prefix+parts[0])
			cont := strings.Repeat(" ", prefixWidth)
			for _, p := range parts[1:] {
				out = append(out, cont+p)
			}
			continue
		}

		out = append(out, strings.Split(wordwrap.String(l, width), "\n")...)
	}
	return strings.Join(out, "\n")
}
