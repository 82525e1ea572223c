package domain

type RoomID string

// Room is registry meta only. The ordered member list is owned by the
// store; OwnerID stays valid even after the owner leaves.
type Room struct {
	ID      RoomID
	OwnerID UserID
}
