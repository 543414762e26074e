package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Account field limits.
const (
	MinAccessLevel    = 1
	MaxAccessLevel    = 3
	maxNameLength     = 50
	minPasswordLength = 4
	maxPasswordLength = 32
	maxPasswordBytes  = 72 // bcrypt input limit
)

// InputError reports invalid fields in a user-management request.
type InputError struct {
	Problems []ValidationError
}

func (e *InputError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// CreateUserRequest carries a new account. Password is plain text and is
// hashed before it reaches the store.
type CreateUserRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	Surname     string `json:"surname"`
	Password    string `json:"password"`
	AccessLevel int    `json:"accessLevel"`
}

// ListUsers returns every account without password hashes.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser validates and stores a new account.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (User, error) {
	u := User{
		Email:       strings.TrimSpace(req.Email),
		FirstName:   strings.TrimSpace(req.FirstName),
		Surname:     strings.TrimSpace(req.Surname),
		AccessLevel: req.AccessLevel,
	}

	problems := validateProfile(u.Email, u.FirstName, u.Surname, u.AccessLevel)
	if n := utf8.RuneCountInString(req.Password); n < minPasswordLength || n > maxPasswordLength {
		problems = append(problems, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be %d-%d characters", minPasswordLength, maxPasswordLength),
		})
	} else if len(req.Password) > maxPasswordBytes {
		problems = append(problems, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		})
	}
	if len(problems) > 0 {
		return User{}, &InputError{Problems: problems}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.CreateUser(ctx, NewUser{User: u, PasswordHash: string(hash)}); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateUser changes an account's names and access level.
func (s *Service) UpdateUser(ctx context.Context, upd UserUpdate) (User, error) {
	upd.Email = strings.TrimSpace(upd.Email)
	upd.FirstName = strings.TrimSpace(upd.FirstName)
	upd.Surname = strings.TrimSpace(upd.Surname)

	if problems := validateProfile(upd.Email, upd.FirstName, upd.Surname, upd.AccessLevel); len(problems) > 0 {
		return User{}, &InputError{Problems: problems}
	}

	u, err := s.store.UpdateUser(ctx, upd)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, err
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes an account and its warning subscriptions.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &InputError{Problems: []ValidationError{{Field: "email", Message: "required field is empty"}}}
	}
	if err := s.store.DeleteUser(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Warnings returns the beaches a user is subscribed to.
func (s *Service) Warnings(ctx context.Context, email string) ([]Beach, error) {
	beaches, err := s.store.BeachWarnings(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return beaches, nil
}

// SetWarnings replaces a user's beach subscriptions with beachIDs.
func (s *Service) SetWarnings(ctx context.Context, email string, beachIDs []int64) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &InputError{Problems: []ValidationError{{Field: "email", Message: "required field is empty"}}}
	}

	seen := make(map[int64]bool, len(beachIDs))
	ids := make([]int64, 0, len(beachIDs))
	for _, id := range beachIDs {
		if id <= 0 {
			return &InputError{Problems: []ValidationError{{Field: "beachIds", Value: fmt.Sprint(id), Message: "must be a positive beach id"}}}
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if err := s.store.ReplaceBeachWarnings(ctx, email, ids); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("set warnings: %w", err)
	}
	return nil
}

func validateProfile(email, firstName, surname string, accessLevel int) []ValidationError {
	var problems []ValidationError

	switch {
	case email == "":
		problems = append(problems, ValidationError{Field: "email", Message: "required field is empty"})
	case !validEmail(email):
		problems = append(problems, ValidationError{Field: "email", Value: email, Message: "invalid email"})
	}

	for _, f := range []struct{ field, value string }{
		{"firstName", firstName},
		{"surname", surname},
	} {
		if f.value == "" {
			problems = append(problems, ValidationError{Field: f.field, Message: "required field is empty"})
		} else if utf8.RuneCountInString(f.value) > maxNameLength {
			problems = append(problems, ValidationError{
				Field:   f.field,
				Message: fmt.Sprintf("must be at most %d characters", maxNameLength),
			})
		}
	}

	if accessLevel < MinAccessLevel || accessLevel > MaxAccessLevel {
		problems = append(problems, ValidationError{
			Field:   "accessLevel",
			Value:   fmt.Sprint(accessLevel),
			Message: fmt.Sprintf("must be between %d and %d", MinAccessLevel, MaxAccessLevel),
		})
	}

	return problems
}

// validEmail accepts a bare address such as "a@b.com" but not
// "Name <a@b.com>".
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}
