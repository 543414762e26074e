package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT email, first_name, surname, access_level
		FROM users
		ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.Email, &u.FirstName, &u.Surname, &u.AccessLevel); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.NewUser) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (email, first_name, surname, password, access_level)
		VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.FirstName, u.Surname, u.PasswordHash, u.AccessLevel)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.UserUpdate) (core.User, error) {
	var out core.User
	err := s.q.QueryRowContext(ctx, `
		UPDATE users
		SET first_name = ?, surname = ?, access_level = ?
		WHERE email = ?
		RETURNING email, first_name, surname, access_level`,
		u.FirstName, u.Surname, u.AccessLevel, u.Email,
	).Scan(&out.Email, &out.FirstName, &out.Surname, &out.AccessLevel)
	if isNoRows(err) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, email string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if rowsAffected(res) == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (s *Store) BeachWarnings(ctx context.Context, email string) ([]core.Beach, error) {
	if err := userExists(ctx, s.q, email); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT b.beach_id, b.beach, b.area
		FROM beach_warnings w
		JOIN beaches b ON b.beach_id = w.beach_id
		WHERE w.email = ?
		ORDER BY b.beach`, email)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	out := []core.Beach{}
	for rows.Next() {
		var b core.Beach
		if err := rows.Scan(&b.ID, &b.Name, &b.Area); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return out, nil
}

// ReplaceBeachWarnings swaps the user's subscriptions for beachIDs in one
// transaction. Unknown beach IDs fail the foreign key and nothing changes.
func (s *Store) ReplaceBeachWarnings(ctx context.Context, email string, beachIDs []int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, email); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM beach_warnings WHERE email = ?`, email); err != nil {
			return fmt.Errorf("clear warnings: %w", err)
		}
		for _, id := range beachIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO beach_warnings (email, beach_id) VALUES (?, ?)`, email, id); err != nil {
				return fmt.Errorf("add warning for beach %d: %w", id, err)
			}
		}
		return nil
	})
}

func userExists(ctx context.Context, q queryer, email string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&one)
	if isNoRows(err) {
		return core.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}
