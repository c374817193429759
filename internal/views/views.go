package views

import (
	"slices"
	"strings"

	"github.com/vango-dev/dippy/internal/game"
	"github.com/vango-dev/dippy/pkg/locator"
	"github.com/vango-dev/dippy/pkg/model"
	"github.com/vango-dev/dippy/pkg/view"
)

// Node names.
const (
	NameGame     = "game"
	NameControls = "controls"
	NameChat     = "chat"
	NameChannel  = "channel"
)

// Session holds the resources shown for one game.
type Session struct {
	Game     *model.Resource[game.Game]
	Messages *model.Resource[game.Messages]

	// UserID identifies the viewer; their nation is marked in listings.
	UserID string

	gameID string
}

// NewSession creates the resources for gameID.
func NewSession(gameID, userID string) *Session {
	return &Session{
		Game:     game.NewGame(gameID),
		Messages: game.NewMessages(gameID),
		UserID:   userID,
		gameID:   gameID,
	}
}

// Mount renders the game view as the sole occupant of host.
func (s *Session) Mount(rt *view.Runtime, host view.Host) (*view.Node, error) {
	return rt.Mount(host, s.GameView, view.Named(NameGame))
}

// GameView renders the game title and nests the controls panel.
func (s *Session) GameView(sc *view.Scope) error {
	if err := sc.Fetch(s.Game); err != nil {
		return err
	}
	sc.Printf("%s\n", titleStyle.Render("Game "+s.gameID))
	_, err := sc.Render(s.ControlsView, view.Named(NameControls))
	return err
}

// ControlsView renders phase, members and navigation, and nests the chat.
// It re-renders whenever the game syncs.
func (s *Session) ControlsView(sc *view.Scope) error {
	sc.Listen(s.Game, sc.Rerender)

	g := s.Game.Get()
	if !s.Game.Populated() {
		sc.Printf("%s\n", dimStyle.Render("loading..."))
		return nil
	}

	variant := g.Variant
	if variant == "" {
		variant = "standard"
	}
	if g.Started() {
		sc.Printf("%s  %s\n", phaseStyle.Render(g.Phase.String()), dimStyle.Render(variant))
	} else {
		sc.Printf("%s  %s\n", dimStyle.Render("not started"), dimStyle.Render(variant))
	}

	for _, m := range g.Members {
		nation := m.Nation
		if nation == "" {
			nation = "?"
		}
		if m.UserId == s.UserID {
			nation += " (you)"
		}
		sc.Printf("  %s\n", nation)
	}

	sc.Link("chat", game.MessagesLocator(s.gameID))
	sc.WriteString(" ")
	sc.Link("orders", game.GameLocator(s.gameID)+"/orders")
	sc.WriteString(" ")
	sc.Link("results", game.GameLocator(s.gameID)+"/results")
	sc.WriteString("\n")

	if !g.Started() {
		return nil
	}
	_, err := sc.Render(s.ChatView, view.Named(NameChat))
	return err
}

// ChatView renders one channel view per recipient set. It re-renders
// whenever the messages sync.
func (s *Session) ChatView(sc *view.Scope) error {
	if err := sc.Fetch(s.Messages); err != nil {
		return err
	}
	sc.Listen(s.Messages, sc.Rerender)

	channels := s.Messages.Get().Channels()
	if len(channels) == 0 {
		sc.Printf("%s\n", dimStyle.Render("no messages"))
		return nil
	}

	ids := make([]string, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, err := sc.Render(ChannelView(s.gameID, id, channels[id]), view.Named(NameChannel)); err != nil {
			return err
		}
	}
	return nil
}

// ChannelView renders the messages of one channel, oldest first.
func ChannelView(gameID, channelID string, msgs game.Messages) view.RenderFunc {
	return func(sc *view.Scope) error {
		members := strings.Join(game.ChannelMembers(channelID), ", ")
		sc.Printf("%s ", channelStyle.Render(members))
		sc.Link("open", locator.Join("games", gameID, "messages", channelID))
		sc.WriteString("\n")
		for _, m := range msgs {
			sc.Printf("  %s: %s\n", m.SenderId, m.Body)
		}
		return nil
	}
}
