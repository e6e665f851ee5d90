// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/stanzacms/stanza/internal/auth"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
)

// UserService manages accounts. Users authoring posts cannot be deleted
// while their posts remain.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{
		db:      db,
		queries: store.New(db),
	}
}

// CreateUserInput holds caller-supplied fields for a new user.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string // defaults to author
}

// CreateUser validates the input, hashes the password and persists the user.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (model.User, error) {
	fields := make(map[string]string)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "a valid email address is required"
	}
	if input.Role == "" {
		input.Role = model.RoleAuthor
	} else if input.Role != model.RoleAdmin && input.Role != model.RoleAuthor {
		fields["role"] = fmt.Sprintf("invalid role %q", input.Role)
	}
	if len(fields) > 0 {
		return model.User{}, &ValidationError{Fields: fields}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return model.User{}, NewValidationError("password", err.Error())
		}
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	var saved model.User
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		taken, err := q.UserEmailExists(ctx, input.Email)
		if err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if taken {
			return NewValidationError("email", "a user with this email already exists")
		}

		now := time.Now()
		saved, err = q.CreateUser(ctx, store.CreateUserParams{
			Email:        input.Email,
			PasswordHash: hash,
			Role:         input.Role,
			Name:         input.Name,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("persisting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return saved, nil
}

// Authenticate verifies an email/password pair and returns the matching user.
// The error is ErrNotFound for both unknown emails and wrong passwords, so
// callers cannot distinguish the two.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("authenticating %q: %w", email, ErrNotFound)
		}
		return model.User{}, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return model.User{}, fmt.Errorf("authenticating %q: %w", email, ErrNotFound)
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, err
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.queries.ListUsers(ctx)
}

// DeleteUser removes a user. The delete is rejected with a ReferentialError
// while posts reference the user as their author.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("user %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("fetching user: %w", err)
		}

		posts, err := q.CountPostsByAuthor(ctx, id)
		if err != nil {
			return fmt.Errorf("counting posts: %w", err)
		}
		if posts > 0 {
			return &ReferentialError{
				Message: fmt.Sprintf("user %d has %d post(s) and cannot be deleted", id, posts),
			}
		}

		if err := q.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
}
