package store

import "time"

type User struct {
	Username  string
	Groups    []string // room identifiers the user has joined
	CreatedAt time.Time
}

type Group struct {
	GroupID    string // 5-character room identifier
	Members    []string
	MessageIDs []int64
	CreatedAt  time.Time
}

type ChatMessage struct {
	ID        int64
	Content   string
	Author    string
	CreatedAt time.Time
}
