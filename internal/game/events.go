package game

import "github.com/lastletter/lastletter/internal/models"

// EventType names an outbound notification.
type EventType string

const (
	EventJoinedRoom          EventType = "joinedRoom"
	EventLeftRoom            EventType = "leftRoom"
	EventPlayerNameChanged   EventType = "playerNameChanged"
	EventPlayerReady         EventType = "playerReady"
	EventPlayerStatusChanged EventType = "playerStatusChanged"
	EventStartRound          EventType = "startRound"
	EventNextPlayer          EventType = "nextPlayer"
	EventNewWord             EventType = "newWord"
	EventWrongWord           EventType = "wrongWord"
	EventEndRound            EventType = "endRound"
	EventError               EventType = "error"
)

// Event is the wire form of an outbound notification.
type Event struct {
	Type     EventType           `json:"type"`
	PlayerID string              `json:"playerId,omitempty"`
	Name     string              `json:"name,omitempty"`
	Status   models.PlayerStatus `json:"status,omitempty"`
	Word     string              `json:"word,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// Notifier is the transport collaborator: it can address a single connection,
// broadcast to a named group, and maintain group membership matching room
// semantics. Implementations must deliver events for one group in the order
// they were emitted.
type Notifier interface {
	Send(connID string, ev Event)
	Broadcast(room string, ev Event)
	JoinGroup(room, connID string)
	LeaveGroup(room, connID string)
}
