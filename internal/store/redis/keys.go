package redis

import "fmt"

// Key prefix for all game data.
const keyPrefix = "lastletter"

func playerKey(id string) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

func roomKey(name string) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, name)
}

// roomNamesKey is the global set of existing room names.
func roomNamesKey() string {
	return fmt.Sprintf("%s:rooms", keyPrefix)
}

func roomMembersKey(room string) string {
	return fmt.Sprintf("%s:room_players:%s", keyPrefix, room)
}

func roundKey(room string) string {
	return fmt.Sprintf("%s:round:%s", keyPrefix, room)
}

func inGameKey(room string) string {
	return fmt.Sprintf("%s:in_game:%s", keyPrefix, room)
}

// lapKey holds the rotating subset of in-game players yet to act this lap.
func lapKey(room string) string {
	return fmt.Sprintf("%s:lap:%s", keyPrefix, room)
}

func usedWordsKey(room string) string {
	return fmt.Sprintf("%s:used_words:%s", keyPrefix, room)
}
