package models

// PlayerStatus is the lifecycle status of a connected player.
type PlayerStatus string

const (
	StatusWaiting    PlayerStatus = "waiting"
	StatusReady      PlayerStatus = "ready"
	StatusPlaying    PlayerStatus = "playing"
	StatusEliminated PlayerStatus = "eliminated"
)

// Player is the record kept for every live connection. ID is the
// connection-scoped identity; the record exists from connect to disconnect.
type Player struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	RoomName string       `json:"roomName"` // empty => not in a room
	Status   PlayerStatus `json:"status"`
}
