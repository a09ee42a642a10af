package game

import "errors"

// Validation and precondition failures surfaced to the originator as an
// "error" event. None of these leave partial state behind.
var (
	ErrNameTooShort     = errors.New("name must be at least 3 characters long")
	ErrRoomNameTooShort = errors.New("room name must be at least 3 characters long")
	ErrAlreadyInRoom    = errors.New("you are already in a room")
	ErrRoomExists       = errors.New("room name already exists")
	ErrRoomNotFound     = errors.New("room does not exist")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrNotInRoom        = errors.New("you are not in a room")
	ErrNotEnoughPlayers = errors.New("you need at least 2 ready players to start the game")
)
