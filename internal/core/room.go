package core

import (
	"net/url"
	"strings"
)

// DefaultRoom is used when the page address carries no room.
const DefaultRoom Room = "default"

// Room names a chat partition. It is fixed for the lifetime of a session.
type Room string

// String returns the raw room name.
func (r Room) String() string {
	return string(r)
}

// RoomFromQuery derives the room from the raw query string (the text after '?').
// A leading '?' is tolerated. Empty input yields DefaultRoom.
func RoomFromQuery(rawQuery string) Room {
	return NormalizeRoom(strings.TrimPrefix(rawQuery, "?"))
}

// NormalizeRoom is the one room normalization shared by client and backend:
// surrounding whitespace is dropped and an empty name becomes DefaultRoom.
func NormalizeRoom(name string) Room {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultRoom
	}
	return Room(name)
}

// RoomFromURL derives the room from a full page address such as
// "https://chat.example/?team". Addresses that fail to parse fall back to
// everything after the first '?'.
func RoomFromURL(pageURL string) Room {
	u, err := url.Parse(pageURL)
	if err != nil {
		if _, after, ok := strings.Cut(pageURL, "?"); ok {
			return RoomFromQuery(after)
		}
		return DefaultRoom
	}
	return RoomFromQuery(u.RawQuery)
}
