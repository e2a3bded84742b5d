package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
)

// ConversationModel is the transcript and composer of one open conversation.
type ConversationModel struct {
	view *chatservice.View

	viewport viewport.Model
	input    textinput.Model

	state     chatservice.State
	entries   []chatservice.Entry
	alert     bool
	alertText string

	width  int
	height int
}

// NewConversationModel wraps an opened view; Init starts it.
func NewConversationModel(view *chatservice.View, width, height int) ConversationModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 1000
	ti.Prompt = "> "

	m := ConversationModel{
		view:     view,
		viewport: viewport.New(80, 20),
		input:    ti,
		state:    view.Channel().State(),
	}
	m.resize(width, height)
	m.syncComposer()
	return m
}

func (m ConversationModel) Init() tea.Cmd {
	m.view.Start()
	return waitForChannel(m.view.Channel())
}

func waitForChannel(ch *chatservice.Channel) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch.Updates():
			return channelUpdateMsg{ch: ch}
		case <-ch.Done():
			return channelDoneMsg{ch: ch}
		}
	}
}

func (m ConversationModel) Update(msg tea.Msg) (ConversationModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case channelUpdateMsg:
		if msg.ch != m.view.Channel() {
			return m, nil
		}
		m.refresh()
		return m, waitForChannel(m.view.Channel())

	case channelDoneMsg:
		if msg.ch != m.view.Channel() {
			return m, nil
		}
		m.refresh()
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			// restore the text so the user can retry
			m.input.SetValue(msg.text)
			m.showAlert(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ConversationModel) handleKey(msg tea.KeyMsg) (ConversationModel, tea.Cmd) {
	if m.alert {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.alert = false
			m.syncComposer()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, func() tea.Msg { return backMsg{} }

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if !chatservice.ComposerEnabled(m.state) {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ConversationModel) submit() (ConversationModel, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if !chatservice.ComposerEnabled(m.view.Channel().State()) {
		m.showAlert(chatservice.ErrNotConnected)
		return m, nil
	}
	if text == "" {
		return m, nil
	}

	m.input.Reset()
	view := m.view
	return m, func() tea.Msg {
		return sendResultMsg{text: text, err: view.Send(text)}
	}
}

func (m *ConversationModel) showAlert(err error) {
	m.alert = true
	m.alertText = chatservice.SendAlertBody
	if !errors.Is(err, chatservice.ErrNotConnected) {
		m.alertText = chatservice.SendAlertBody + "\n" + mutedStyle.Render(err.Error())
	}
	m.input.Blur()
}

func (m *ConversationModel) refresh() {
	m.state = m.view.Channel().State()
	m.entries = m.view.Channel().Entries()
	m.syncComposer()
	m.refreshViewport()
}

func (m *ConversationModel) syncComposer() {
	if chatservice.ComposerEnabled(m.state) && !m.alert {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *ConversationModel) resize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m.width, m.height = width, height

	// header, banner, composer and help lines
	vpHeight := height - 6
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4
}

func (m *ConversationModel) refreshViewport() {
	me := m.view.Identity()
	bubbleWidth := m.width * 2 / 3

	var b strings.Builder
	for _, entry := range m.entries {
		b.WriteString(renderBubble(entry.Message, chatservice.IsMine(entry.Message, me), bubbleWidth, m.width))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderBubble(msg chat.Message, mine bool, bubbleWidth, width int) string {
	text := msg.Message
	if t := msg.Time(); !t.IsZero() {
		text += "\n" + mutedStyle.Render(t.Local().Format("15:04"))
	}

	if mine {
		bubble := mineBubbleStyle.MaxWidth(bubbleWidth).Render(text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	bubble := theirBubbleStyle.MaxWidth(bubbleWidth).Render(text)
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble)
}

func (m ConversationModel) View() string {
	name, initial := m.view.Header()

	var b strings.Builder
	b.WriteString(avatarStyle.Render(initial) + " " + titleStyle.Render(name))
	b.WriteString("\n")

	if banner := chatservice.StatusBanner(m.state); banner != "" {
		style := bannerStyle
		if m.state == chatservice.StateError {
			style = errorBannerStyle
		}
		b.WriteString(style.Render(banner))
	}
	b.WriteString("\n")

	if m.alert {
		box := alertStyle.Render(titleStyle.Render(chatservice.SendAlertTitle) + "\n\n" + m.alertText + "\n\n" + helpStyle.Render("enter: OK"))
		b.WriteString(lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box))
	} else if len(m.entries) == 0 {
		b.WriteString(lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, mutedStyle.Render("No messages yet")))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send  esc: back  pgup/pgdn: scroll"))
	return b.String()
}

// AlertVisible reports whether the blocking send alert is shown.
func (m ConversationModel) AlertVisible() bool {
	return m.alert
}

// ComposerFocused reports whether the composer accepts input.
func (m ConversationModel) ComposerFocused() bool {
	return m.input.Focused()
}
