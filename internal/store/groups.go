package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// GetGroup fetches one group by its 5-character identifier.
func (p *Postgres) GetGroup(ctx context.Context, groupID string) (Group, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT group_id, members, message_ids, created_at
		FROM groups
		WHERE group_id = $1
	`, groupID)

	var g Group
	if err := row.Scan(&g.GroupID, &g.Members, &g.MessageIDs, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}
	return g, nil
}

// ListGroups returns groups sorted by creation time.
func (p *Postgres) ListGroups(ctx context.Context, limit, offset int) ([]Group, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT group_id, members, message_ids, created_at
		FROM groups
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.GroupID, &g.Members, &g.MessageIDs, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AddGroupMember records username in the group's member list, creating the
// group on first join. Adding a member the group already has is a no-op.
func (p *Postgres) AddGroupMember(ctx context.Context, groupID, username string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO groups (group_id, members)
		VALUES ($1, ARRAY[$2])
		ON CONFLICT (group_id)
		DO UPDATE SET members = array_append(groups.members, $2)
		WHERE NOT ($2 = ANY(groups.members))
	`, groupID, username)
	return err
}

// AppendGroupMessage stores the chat record, then links it to the group.
// A message for a group that was never persisted is kept but linked to
// nothing, mirroring the at-most-once write policy.
func (p *Postgres) AppendGroupMessage(ctx context.Context, groupID, content, author string) error {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO messages (content, author)
		VALUES ($1, $2)
		RETURNING id
	`, content, author).Scan(&id)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		UPDATE groups
		SET message_ids = array_append(message_ids, $2)
		WHERE group_id = $1
	`, groupID, id)
	return err
}

// ListGroupMessages returns the group's chat records in insertion order.
func (p *Postgres) ListGroupMessages(ctx context.Context, groupID string) ([]ChatMessage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT m.id, m.content, m.author, m.created_at
		FROM messages m
		JOIN groups g ON m.id = ANY(g.message_ids)
		WHERE g.group_id = $1
		ORDER BY m.id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Content, &m.Author, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
