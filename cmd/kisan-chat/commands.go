package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/config"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/assistant"
	"github.com/kisandost/kisan-chat/internal/service/bus"
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
	"github.com/kisandost/kisan-chat/internal/service/history"
	"github.com/kisandost/kisan-chat/internal/service/session"
	"github.com/kisandost/kisan-chat/internal/storage"
	"github.com/kisandost/kisan-chat/internal/ui"
)

func loadIdentity(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (identity.Identity, int, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return identity.Identity{}, exitRuntime, err
	}
	defer store.Close()

	me, err := session.Load(ctx, store)
	if errors.Is(err, session.ErrNoIdentity) {
		return identity.Identity{}, exitConfig, fmt.Errorf("%w: run `kisan-chat login` first", err)
	}
	if err != nil {
		return identity.Identity{}, exitRuntime, err
	}
	return me, exitOK, nil
}

func runTUI(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (int, error) {
	me, code, err := loadIdentity(ctx, cfg, logger)
	if err != nil {
		return code, err
	}

	dialer := bus.NewWebSocketDialer(cfg.Bus.Options())
	registry := chatservice.NewRegistry(dialer, cfg.Bus.URL(), logger)
	defer registry.CloseAll()

	reader := history.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	app := ui.NewApp(ctx, me, registry, reader, logger)

	logger.Info().Str("phone", me.Phone).Str("role", me.Role.String()).Msg("starting chat")
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return exitRuntime, err
	}
	return exitOK, nil
}

func runContacts(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer) (int, error) {
	me, code, err := loadIdentity(ctx, cfg, logger)
	if err != nil {
		return code, err
	}

	reader := history.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	rows := chatservice.NewDirectory(reader, me, logger).Rows(ctx)
	writeContacts(out, rows)
	return exitOK, nil
}

func writeContacts(out io.Writer, rows []chatservice.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No conversations yet")
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"", "Name", "Phone", "Last message", "Unread"})
	for _, row := range rows {
		table.Append([]string{row.Initial, row.Name, row.Phone, row.LastMessage, row.Unread})
	}
	table.Render()
}

func runLogin(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string, out io.Writer) (int, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "10-digit mobile number")
	role := fs.String("role", "farmer", "farmer or vendor")
	name := fs.String("name", "", "display name")
	city := fs.String("city", "", "city")
	state := fs.String("state", "", "state")
	if err := fs.Parse(args); err != nil {
		return exitConfig, err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer store.Close()

	return login(ctx, store, identity.Profile{Name: *name, UserType: *role, City: *city, State: *state}, *phone, out)
}

func login(ctx context.Context, store storage.Store, profile identity.Profile, phone string, out io.Writer) (int, error) {
	if err := session.Save(ctx, store, profile, phone); err != nil {
		return exitConfig, err
	}

	me, err := session.Load(ctx, store)
	if err != nil {
		return exitRuntime, err
	}
	fmt.Fprintf(out, "Logged in as %s (%s)\n", me.Phone, me.Role)
	return exitOK, nil
}

func runAsk(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string, out io.Writer) (int, error) {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	lang := fs.String("lang", assistant.LanguageAuto, "reply language: auto, hi, en, mr, ta, te, gu, kn, pa")
	title := fs.String("title", "", "continue a previous chat")
	list := fs.Bool("list", false, "list previous chats")
	if err := fs.Parse(args); err != nil {
		return exitConfig, err
	}

	me, code, err := loadIdentity(ctx, cfg, logger)
	if err != nil {
		return code, err
	}
	client := assistant.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)

	if *list {
		for _, t := range client.Titles(ctx, me.Phone) {
			fmt.Fprintln(out, t)
		}
		return exitOK, nil
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return exitConfig, assistant.ErrEmptyQuestion
	}
	if _, err := assistant.ResolveLanguage(*lang, question); err != nil {
		return exitConfig, fmt.Errorf("%w: %s", err, *lang)
	}

	reply, chatTitle, err := ask(ctx, client, me.Phone, *title, *lang, question)
	if err != nil {
		return exitRuntime, err
	}

	rendered, err := renderMarkdown(reply)
	if err != nil {
		logger.Debug().Err(err).Msg("markdown render failed")
		rendered = reply + "\n"
	}
	fmt.Fprint(out, rendered)
	fmt.Fprintf(out, "\n(chat: %s)\n", chatTitle)
	return exitOK, nil
}

// ask continues title when it exists and starts a new greeted chat otherwise.
func ask(ctx context.Context, client *assistant.Client, phone, title, lang, question string) (string, string, error) {
	var turns []assistant.Message
	if title != "" {
		previous, err := client.Open(ctx, phone, title)
		switch {
		case err == nil:
			turns = previous
		case errors.Is(err, assistant.ErrChatNotFound):
		default:
			return "", "", err
		}
	} else {
		title = assistant.NewTitle(time.Now())
	}
	if len(turns) == 0 {
		turns = append(turns, assistant.Greeting(time.Now()))
	}
	turns = append(turns, client.Question(question))

	reply, err := client.Ask(ctx, assistant.AskRequest{
		Phone:    phone,
		Title:    title,
		Content:  turns,
		Language: lang,
	})
	if err != nil {
		return "", "", err
	}
	return reply, title, nil
}

func renderMarkdown(text string) (string, error) {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}
