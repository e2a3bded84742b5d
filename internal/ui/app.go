package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/model/identity"
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
)

type screen int

const (
	screenDirectory screen = iota
	screenConversation
)

// App switches between the directory and one open conversation.
type App struct {
	ctx      context.Context
	me       identity.Identity
	registry *chatservice.Registry
	history  chatservice.HistoryReader
	log      zerolog.Logger

	screen       screen
	directory    DirectoryModel
	conversation *ConversationModel
	width        int
	height       int
}

// NewApp builds the root model. The registry is owned by the caller.
func NewApp(ctx context.Context, me identity.Identity, registry *chatservice.Registry, history chatservice.HistoryReader, logger zerolog.Logger) App {
	dir := chatservice.NewDirectory(history, me, logger)
	return App{
		ctx:       ctx,
		me:        me,
		registry:  registry,
		history:   history,
		log:       logger.With().Str("component", "ui").Logger(),
		screen:    screenDirectory,
		directory: NewDirectoryModel(ctx, dir),
		width:     80,
		height:    24,
	}
}

func (a App) Init() tea.Cmd {
	return a.directory.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.closeConversation()
			return a, tea.Quit
		}
		if a.screen == screenDirectory && msg.String() == "q" {
			return a, tea.Quit
		}

	case openConversationMsg:
		return a.openConversation(msg.row)

	case backMsg:
		a.closeConversation()
		a.screen = screenDirectory
		a.directory.loading = true
		return a, a.directory.load()
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenConversation:
		if a.conversation != nil {
			var conv ConversationModel
			conv, cmd = a.conversation.Update(msg)
			a.conversation = &conv
		}
	default:
		a.directory, cmd = a.directory.Update(msg)
	}
	return a, cmd
}

func (a App) openConversation(row chatservice.Row) (tea.Model, tea.Cmd) {
	view, err := chatservice.OpenView(a.ctx, a.registry, a.history, a.me, row.Conversation, a.log)
	if err != nil {
		a.log.Warn().Err(err).Str("conversation", row.Conversation.Key()).Msg("open conversation failed")
		notice := "Unable to open conversation"
		if errors.Is(err, chatservice.ErrChannelBusy) {
			notice = "Conversation is already open"
		}
		a.directory.SetNotice(notice)
		return a, nil
	}

	conv := NewConversationModel(view, a.width, a.height)
	a.conversation = &conv
	a.screen = screenConversation
	a.directory.SetNotice("")
	return a, conv.Init()
}

func (a *App) closeConversation() {
	if a.conversation == nil {
		return
	}
	if err := a.conversation.view.Close(); err != nil {
		a.log.Debug().Err(err).Msg("close conversation")
	}
	a.conversation = nil
}

func (a App) View() string {
	if a.screen == screenConversation && a.conversation != nil {
		return a.conversation.View()
	}
	return a.directory.View()
}
