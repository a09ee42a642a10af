package models

// Room is the record for a named game room. Name is immutable once created.
// PasswordHash is an argon2id encoded hash, or empty for open rooms.
type Room struct {
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	LeaderID     string `json:"leaderId"`
	GameStarted  bool   `json:"gameStarted"`
}
