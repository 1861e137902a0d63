package render

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func readyModel(content string) *pagerModel {
	m := newPagerModel("trace", content)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 6})
	return m
}

func TestWrapContent_PlainLine(t *testing.T) {
	got := wrapContent("alpha beta gamma delta", 11)
	want := "alpha beta\ngamma delta"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWrapContent_TimelineRow(t *testing.T) {
	line := "    3 │   " + strings.TrimSpace(strings.Repeat("word ", 12))
	got := wrapContent(line, 40)
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "    3 │   word") {
		t.Errorf("first line lost its prefix: %q", lines[0])
	}
	indent := strings.Repeat(" ", lipgloss.Width("    3 │   "))
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, indent+"word") {
			t.Errorf("continuation not aligned: %q", l)
		}
	}
}

func TestWrapContent_ZeroWidth(t *testing.T) {
	if got := wrapContent("unchanged", 0); got != "unchanged" {
		t.Errorf("expected content unchanged, got %q", got)
	}
}

func TestPager_Search(t *testing.T) {
	m := readyModel("one\ntwo beta\nthree\nBETA four\nfive")

	m.Update(keys("/"))
	if !m.searching {
		t.Fatal("expected search mode after /")
	}
	m.Update(keys("beta"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.searching {
		t.Error("expected search mode to end on enter")
	}
	if len(m.matches) != 2 || m.matches[0] != 1 || m.matches[1] != 3 {
		t.Errorf("expected matches [1 3], got %v", m.matches)
	}

	m.Update(keys("n"))
	if m.current != 1 {
		t.Errorf("expected current match 1, got %d", m.current)
	}
	m.Update(keys("N"))
	if m.current != 0 {
		t.Errorf("expected current match 0, got %d", m.current)
	}
	if !strings.Contains(m.View(), "[1/2]") {
		t.Errorf("expected match counter in footer:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.query != "" || m.matches != nil {
		t.Error("expected esc to clear the search")
	}
}

func TestPager_SearchMiss(t *testing.T) {
	m := readyModel("one\ntwo")
	m.Update(keys("/"))
	m.Update(keys("zzz"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.missed {
		t.Error("expected missed search")
	}
	if !strings.Contains(m.View(), "Pattern not found") {
		t.Errorf("expected miss notice:\n%s", m.View())
	}
}

func TestPager_Quit(t *testing.T) {
	m := readyModel("content")
	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestPager_Reload(t *testing.T) {
	m := readyModel("old")
	calls := 0
	m.render = func() (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("truncated file")
		}
		return "new content", nil
	}

	m.reload()
	if m.content != "new content" {
		t.Errorf("expected reloaded content, got %q", m.content)
	}
	m.reload()
	if m.content != "new content" {
		t.Error("failed reload should keep previous content")
	}
	if !strings.Contains(m.View(), "reload failed: truncated file") {
		t.Errorf("expected reload error in footer:\n%s", m.View())
	}
}

func TestPager_ViewBeforeReady(t *testing.T) {
	m := newPagerModel("trace", "content")
	if !strings.Contains(m.View(), "Loading") {
		t.Error("expected loading view before the first resize")
	}
}
