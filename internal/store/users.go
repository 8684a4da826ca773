package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a user or group does not exist.
var ErrNotFound = errors.New("not found")

// normUsername trims surrounding whitespace; identities are case-sensitive.
func normUsername(s string) string { return strings.TrimSpace(s) }

// CreateUser inserts a user with no groups. Creating an existing user is a
// no-op.
func (p *Postgres) CreateUser(ctx context.Context, username string) (User, error) {
	username = normUsername(username)
	if username == "" {
		return User{}, errors.New("missing username")
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (username)
		VALUES ($1)
		ON CONFLICT (username) DO NOTHING
	`, username)
	if err != nil {
		return User{}, err
	}
	return p.GetUser(ctx, username)
}

// GetUser fetches one user by name.
func (p *Postgres) GetUser(ctx context.Context, username string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT username, groups, created_at
		FROM users
		WHERE username = $1
	`, normUsername(username))

	var u User
	if err := row.Scan(&u.Username, &u.Groups, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ListUsers returns users sorted by creation time.
func (p *Postgres) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT username, groups, created_at
		FROM users
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.Groups, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AddUserGroup records groupID in the user's room list, creating the user
// if needed. Adding a group the user already has is a no-op.
func (p *Postgres) AddUserGroup(ctx context.Context, username, groupID string) error {
	username = normUsername(username)
	if username == "" {
		return errors.New("missing username")
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (username, groups)
		VALUES ($1, ARRAY[$2])
		ON CONFLICT (username)
		DO UPDATE SET groups = array_append(users.groups, $2)
		WHERE NOT ($2 = ANY(users.groups))
	`, username, groupID)
	return err
}
