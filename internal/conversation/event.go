// Package conversation drives the route dialog: it turns inbound events into
// session transitions and outbound prompts.
package conversation

import "context"

// Kind is the shape of an inbound event.
type Kind int

const (
	KindText Kind = iota + 1
	KindLocation
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLocation:
		return "location"
	case KindChoice:
		return "choice"
	}
	return "unknown"
}

// Location is a shared geographic point.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Event is one inbound user action. Exactly one of Text, Location or Token
// is meaningful depending on Kind.
type Event struct {
	User     int64
	Kind     Kind
	Text     string
	Location Location
	Token    string
}

// TextEvent builds a free-text (or command) event.
func TextEvent(user int64, text string) Event {
	return Event{User: user, Kind: KindText, Text: text}
}

// LocationEvent builds a location event.
func LocationEvent(user int64, lat, lon float64) Event {
	return Event{User: user, Kind: KindLocation, Location: Location{Latitude: lat, Longitude: lon}}
}

// ChoiceEvent builds a button-press event carrying an opaque token.
func ChoiceEvent(user int64, token string) Event {
	return Event{User: user, Kind: KindChoice, Token: token}
}

// Choice is one button of a fixed menu.
type Choice struct {
	Label string
	Token string
}

// Gateway delivers outbound messages to a user. SendImage owns the file at
// path once called and removes it after delivery.
type Gateway interface {
	SendText(ctx context.Context, user int64, text string) error
	SendChoices(ctx context.Context, user int64, text string, rows [][]Choice) error
	SendImage(ctx context.Context, user int64, path string) error
}
