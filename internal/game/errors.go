package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room-not-found")
	ErrRoomFull       = errors.New("room-full")
	ErrRoomInProgress = errors.New("room-in-progress")
	ErrNameTaken      = errors.New("name-taken")
	ErrAlreadyInRoom  = errors.New("already-in-room")
)
