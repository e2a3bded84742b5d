package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
)

// DirectoryModel is the conversation list screen.
type DirectoryModel struct {
	ctx       context.Context
	directory *chatservice.Directory

	rows    []chatservice.Row
	cursor  int
	loading bool
	notice  string
	width   int
}

// NewDirectoryModel builds the list screen.
func NewDirectoryModel(ctx context.Context, directory *chatservice.Directory) DirectoryModel {
	return DirectoryModel{ctx: ctx, directory: directory, loading: true, width: 80}
}

func (m DirectoryModel) Init() tea.Cmd {
	return m.load()
}

func (m DirectoryModel) load() tea.Cmd {
	ctx, directory := m.ctx, m.directory
	return func() tea.Msg {
		return rowsLoadedMsg{rows: directory.Rows(ctx)}
	}
}

func (m DirectoryModel) Update(msg tea.Msg) (DirectoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case rowsLoadedMsg:
		m.rows = msg.rows
		m.loading = false
		if m.cursor >= len(m.rows) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			m.notice = ""
			return m, m.load()
		case "enter":
			if len(m.rows) == 0 {
				return m, nil
			}
			row := m.rows[m.cursor]
			return m, func() tea.Msg { return openConversationMsg{row: row} }
		}
	}
	return m, nil
}

// SetNotice shows a one-line message above the list.
func (m *DirectoryModel) SetNotice(text string) {
	m.notice = text
}

func (m DirectoryModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Chats"))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(errorBannerStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(mutedStyle.Render("Loading conversations..."))
	case len(m.rows) == 0:
		b.WriteString(mutedStyle.Render("No conversations yet"))
	default:
		for i, row := range m.rows {
			b.WriteString(m.renderRow(row, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("up/down: move  enter: open  r: refresh  q: quit"))
	return b.String()
}

func (m DirectoryModel) renderRow(row chatservice.Row, selected bool) string {
	name := row.Name
	if name == "" {
		name = row.Phone
	}

	line := fmt.Sprintf("%s %s  %s", avatarStyle.Render(row.Initial), name, mutedStyle.Render(row.Phone))
	if row.Unread != "" {
		line += " " + badgeStyle.Render(row.Unread)
	}
	line += "\n    " + mutedStyle.Render(row.LastMessage)

	if selected {
		return selectedRowStyle.Render("> " + line)
	}
	return rowStyle.Render("  " + line)
}
