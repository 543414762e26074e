package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT email, first_name, surname, access_level
		FROM users
		ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.User, error) {
		var u core.User
		err := row.Scan(&u.Email, &u.FirstName, &u.Surname, &u.AccessLevel)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.NewUser) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (email, first_name, surname, password, access_level)
		VALUES ($1, $2, $3, $4, $5)`,
		u.Email, u.FirstName, u.Surname, u.PasswordHash, u.AccessLevel)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.UserUpdate) (core.User, error) {
	var out core.User
	err := s.db.QueryRow(ctx, `
		UPDATE users
		SET first_name = $1, surname = $2, access_level = $3
		WHERE email = $4
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
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (s *Store) BeachWarnings(ctx context.Context, email string) ([]core.Beach, error) {
	if err := userExists(ctx, s.db, email); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.beach_id, b.beach, b.area
		FROM beach_warnings w
		JOIN beaches b ON b.beach_id = w.beach_id
		WHERE w.email = $1
		ORDER BY b.beach`, email)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}

	beaches, err := pgx.CollectRows(rows, scanBeach)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return beaches, nil
}

// ReplaceBeachWarnings swaps the user's subscriptions for beachIDs in one
// transaction. Unknown beach IDs fail the foreign key and nothing changes.
func (s *Store) ReplaceBeachWarnings(ctx context.Context, email string, beachIDs []int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := userExists(ctx, tx, email); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM beach_warnings WHERE email = $1`, email); err != nil {
			return fmt.Errorf("clear warnings: %w", err)
		}
		if len(beachIDs) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO beach_warnings (email, beach_id)
			SELECT $1, unnest($2::bigint[])`, email, beachIDs); err != nil {
			return fmt.Errorf("add warnings: %w", err)
		}
		return nil
	})
}

func userExists(ctx context.Context, db DBTX, email string) error {
	var one int
	err := db.QueryRow(ctx, `SELECT 1 FROM users WHERE email = $1`, email).Scan(&one)
	if isNoRows(err) {
		return core.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}
