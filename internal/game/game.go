package game

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/dippy/pkg/locator"
	"github.com/vango-dev/dippy/pkg/model"
)

// ChatFlag is a bit set of the chat kinds a game allows.
type ChatFlag uint

const (
	ChatWhite      ChatFlag = 1 << iota // Attributed press
	ChatConference                      // All-member channel
	ChatPrivate                         // Two-member channels
)

// DefaultChatFlags is the chat configuration of a new game.
const DefaultChatFlags = ChatWhite | ChatConference | ChatPrivate

// Has reports whether all bits of other are set.
func (f ChatFlag) Has(other ChatFlag) bool {
	return f&other == other
}

// String returns the set flag names joined with "|".
func (f ChatFlag) String() string {
	var names []string
	if f.Has(ChatWhite) {
		names = append(names, "white")
	}
	if f.Has(ChatConference) {
		names = append(names, "conference")
	}
	if f.Has(ChatPrivate) {
		names = append(names, "private")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Phase is the current turn of a started game.
type Phase struct {
	Season string
	Year   int
	Type   string
}

// String returns e.g. "Spring 1901 Movement".
func (p Phase) String() string {
	return fmt.Sprintf("%s %d %s", p.Season, p.Year, p.Type)
}

// Member is a player seat in a game.
type Member struct {
	Id     string
	UserId string
	Nation string
}

// Members is the seat list of a game.
type Members []Member

// Get returns the member played by userID, or nil.
func (ms Members) Get(userID string) *Member {
	for i := range ms {
		if ms[i].UserId == userID {
			return &ms[i]
		}
	}
	return nil
}

// Contains reports whether userID holds a seat.
func (ms Members) Contains(userID string) bool {
	return ms.Get(userID) != nil
}

// Nations returns the assigned nations in sorted order.
func (ms Members) Nations() []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Nation != "" {
			out = append(out, m.Nation)
		}
	}
	slices.Sort(out)
	return out
}

// Game is the state of one game as pushed by the server.
type Game struct {
	Id        string
	Variant   string
	Phase     *Phase
	Members   Members
	ChatFlags ChatFlag
}

// Started reports whether the game has a current phase.
func (g Game) Started() bool {
	return g.Phase != nil
}

// Message is one chat message.
type Message struct {
	Id         string
	SenderId   string
	Body       string
	Recipients map[string]bool
	CreatedAt  time.Time
}

// Channel returns the id of the channel the message belongs to.
func (m Message) Channel() string {
	return ChannelID(m.Recipients)
}

// Messages is the chat history of a game, newest last.
type Messages []Message

// Channels groups messages by channel id. Messages without a sender are
// system notices and are skipped.
func (ms Messages) Channels() map[string]Messages {
	out := make(map[string]Messages)
	for _, m := range ms {
		if m.SenderId == "" {
			continue
		}
		id := m.Channel()
		out[id] = append(out[id], m)
	}
	return out
}

// ChannelID returns the id of the channel between the given nations: the
// sorted member names joined with ".".
func ChannelID(members map[string]bool) string {
	names := make([]string, 0, len(members))
	for name, in := range members {
		if in {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(names, ".")
}

// ChannelMembers splits a channel id back into its nations.
func ChannelMembers(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, ".")
}

// GameLocator returns the locator of a game, or "" without an id.
func GameLocator(id string) string {
	if id == "" {
		return ""
	}
	return locator.Join("games", id)
}

// MessagesLocator returns the locator of a game's chat, or "" without an id.
func MessagesLocator(gameID string) string {
	if gameID == "" {
		return ""
	}
	return locator.Join("games", gameID, "messages")
}

// NewGame returns a cache-eligible game resource.
func NewGame(id string, opts ...model.Option) *model.Resource[Game] {
	opts = append([]model.Option{model.Persistent()}, opts...)
	return model.NewFunc[Game](func() string { return GameLocator(id) }, opts...)
}

// NewMessages returns the chat resource of a game. It is never cached.
func NewMessages(gameID string, opts ...model.Option) *model.Resource[Messages] {
	return model.NewFunc[Messages](func() string { return MessagesLocator(gameID) }, opts...)
}

// IDFromLocator extracts the game id from a game or messages locator.
func IDFromLocator(loc string) (string, bool) {
	segs, err := locator.Segments(loc)
	if err != nil || len(segs) < 2 || segs[0] != "games" {
		return "", false
	}
	return segs[1], true
}
