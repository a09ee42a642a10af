package models

// Round is the per-room active round record. The set-valued round state
// (in-game players, current lap, used words) lives in dedicated store sets,
// mirroring the hash/set split of the backing store.
type Round struct {
	RoomName     string `json:"roomName"`
	Word         string `json:"word"` // current chain word, empty at round start
	PlayerTurnID string `json:"playerTurnId"`
	Words        int    `json:"words"` // accepted submissions this round
}
