package relay

import "context"

// Store is the durable side of rooms and chat. Every call must be
// idempotent; the dispatcher never retries a failed write.
type Store interface {
	// AddUserGroup records groupID in the user's room list.
	AddUserGroup(ctx context.Context, username, groupID string) error
	// AddGroupMember records username in the group's member list.
	AddGroupMember(ctx context.Context, groupID, username string) error
	// AppendGroupMessage stores a chat record and links it to the group.
	AppendGroupMessage(ctx context.Context, groupID, content, author string) error
}
