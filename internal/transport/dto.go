package transport

import (
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

// User stays a string so an empty value reports as a missing field rather
// than failing to bind.
type CreateNoteRequest struct {
	User      string `json:"user"      validate:"required,uuid"`
	Title     string `json:"title"     validate:"required"`
	Text      string `json:"text"      validate:"required"`
	Completed bool   `json:"completed"`
}

type UpdateNoteRequest struct {
	ID        uuid.UUID `json:"id"        validate:"required"`
	User      string    `json:"user"      validate:"required,uuid"`
	Title     string    `json:"title"     validate:"required"`
	Text      string    `json:"text"      validate:"required"`
	Completed *bool     `json:"completed" validate:"required"`
}

// DeleteRequest takes the id from the JSON body or the query string. It stays
// a string so an absent id and a malformed one can be told apart.
type DeleteRequest struct {
	ID string `json:"id" query:"id"`
}

type NoteView struct {
	ID        uuid.UUID `json:"id"`
	User      uuid.UUID `json:"user"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DeletedNoteResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles"    validate:"required,min=1,dive,oneof=Employee Manager Admin"`
}

// UpdateUserRequest addresses the user by id. An empty Password keeps the
// stored hash.
type UpdateUserRequest struct {
	ID       uuid.UUID `json:"id"       validate:"required"`
	Username string    `json:"username" validate:"required"`
	Password string    `json:"password"`
	Roles    []string  `json:"roles"    validate:"required,min=1,dive,oneof=Employee Manager Admin"`
	Active   *bool     `json:"active"   validate:"required"`
}

type DeletedUserResponse struct {
	Message  string    `json:"message"`
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type SearchNotesResponse struct {
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Notes []NoteView `json:"notes"`
}
