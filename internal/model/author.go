package model

import "strconv"

// GhostUserID is the reserved sender id narrative messages are persisted
// under. Code outside this package should construct and compare Author
// values instead of touching the raw id.
const GhostUserID int64 = 0

// Author identifies who wrote a message: a real user or the system itself.
// The zero value is the system author.
type Author struct {
	userID int64
}

// SystemAuthor returns the author used for narrative messages.
func SystemAuthor() Author { return Author{} }

// UserAuthor returns the author for a real user id.
func UserAuthor(id int64) Author { return Author{userID: id} }

// IsSystem reports whether the author is the system/ghost identity.
func (a Author) IsSystem() bool { return a.userID == GhostUserID }

// SenderID returns the id the author is persisted under.
func (a Author) SenderID() int64 { return a.userID }

func (a Author) String() string {
	if a.IsSystem() {
		return "system"
	}
	return "user:" + strconv.FormatInt(a.userID, 10)
}
