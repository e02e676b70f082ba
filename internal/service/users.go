package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/hash"
	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/transport"
)

type NoteCounter interface {
	CountNotesByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type UsersService struct {
	Users      UserRepository
	Notes      NoteCounter
	Events     events.Publisher
	BcryptCost int
}

func (s *UsersService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, newError(ErrValidation, MsgNoUsers)
	}
	return users, nil
}

func (s *UsersService) Create(ctx context.Context, req transport.CreateUserRequest) (*transport.CreatedResponse, error) {
	l := logging.FromContext(ctx).With("svc", "users.create", "username", req.Username)

	if err := validateRequest(req, MsgInvalidUserData); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, req.Username, uuid.Nil, ErrDuplicate); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		l.Error("create_user_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
		Roles:        req.Roles,
		Active:       true,
	}
	if err := s.Users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newError(ErrDuplicate, MsgDuplicateUsername)
		}
		l.Error("create_user_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), "user_created", userEventData(user))
	l.Info("user_created", "user_id", user.ID)

	return &transport.CreatedResponse{
		Message: fmt.Sprintf("New user %s created", user.Username),
		ID:      user.ID,
	}, nil
}

func (s *UsersService) Update(ctx context.Context, req transport.UpdateUserRequest) (*transport.MessageResponse, error) {
	l := logging.FromContext(ctx).With("svc", "users.update")

	if err := validateRequest(req, MsgInvalidUserData); err != nil {
		return nil, err
	}

	user, err := s.Users.GetUserByID(ctx, req.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrNotFound, MsgUserNotFound)
	}
	if err != nil {
		return nil, err
	}

	// Renaming onto a taken username is a 400 here, unlike create.
	if err := s.ensureUsernameFree(ctx, req.Username, user.ID, ErrValidation); err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Roles = req.Roles
	user.Active = *req.Active
	if req.Password != "" {
		pwHash, err := hash.HashPassword(req.Password, s.BcryptCost)
		if err != nil {
			l.Error("update_user_failed", "status", 500, "reason", "cannot hash the password", "error", err)
			return nil, err
		}
		user.PasswordHash = pwHash
	}

	if err := s.Users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newError(ErrValidation, MsgDuplicateUsername)
		}
		l.Error("update_user_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), "user_updated", userEventData(*user))

	return &transport.MessageResponse{Message: fmt.Sprintf("%s updated", user.Username)}, nil
}

// Delete refuses to remove a user who still owns notes.
func (s *UsersService) Delete(ctx context.Context, id uuid.UUID) (*transport.DeletedUserResponse, error) {
	l := logging.FromContext(ctx).With("svc", "users.delete")

	if id == uuid.Nil {
		return nil, newError(ErrValidation, MsgUserIDRequired)
	}

	user, err := s.Users.GetUserByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrNotFound, MsgUserNotFound)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.Notes.CountNotesByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		l.Warn("delete_user_refused", "status", 400, "user_id", id, "notes", count)
		return nil, newError(ErrHasNotes, MsgUserHasNotes)
	}

	if err := s.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgUserNotFound)
		}
		l.Error("delete_user_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, id.String(), "user_deleted", userEventData(*user))

	return &transport.DeletedUserResponse{
		Message:  fmt.Sprintf("Username %s with ID %s deleted successfully", user.Username, user.ID),
		ID:       user.ID,
		Username: user.Username,
	}, nil
}

func (s *UsersService) ensureUsernameFree(ctx context.Context, username string, self uuid.UUID, kind error) error {
	existing, err := s.Users.FindUserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return newError(kind, MsgDuplicateUsername)
	}
	return nil
}

func userEventData(u models.User) map[string]any {
	return map[string]any{
		"user_id":  u.ID.String(),
		"username": u.Username,
		"roles":    u.Roles,
		"active":   u.Active,
	}
}
