package pinterest

import (
	"context"
	"time"
)

// Resource types handled by the adapters. They double as cache key prefixes.
const (
	ResourcePin   = "pin"
	ResourceBoard = "board"
)

// Operation is a verb applied to every id of a batch.
type Operation string

// Supported operations.
const (
	OperationGet    Operation = "get"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Operations lists the supported operations in display order.
func Operations() []Operation {
	return []Operation{OperationGet, OperationUpdate, OperationDelete}
}

// Board privacy values.
const (
	PrivacyPublic  = "PUBLIC"
	PrivacySecret  = "SECRET"
	PrivacyProtect = "PROTECTED"
)

// Pin is a saved item on a board.
type Pin struct {
	ID          string    `yaml:"id"                    json:"id"`
	Title       string    `yaml:"title,omitempty"       json:"title,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Link        string    `yaml:"link,omitempty"        json:"link,omitempty"`
	AltText     string    `yaml:"alt_text,omitempty"    json:"alt_text,omitempty"`
	BoardID     string    `yaml:"board_id,omitempty"    json:"board_id,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty"  json:"created_at,omitzero"`
}

// Board groups pins.
type Board struct {
	ID          string `yaml:"id"                    json:"id"`
	Name        string `yaml:"name"                  json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Privacy     string `yaml:"privacy,omitempty"     json:"privacy,omitempty"`
}

// PinUpdate holds the pin fields to change. Nil fields are left untouched.
type PinUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
	AltText     *string `json:"alt_text,omitempty"`
	BoardID     *string `json:"board_id,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u PinUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Link == nil && u.AltText == nil && u.BoardID == nil
}

// Apply writes the set fields onto pin.
func (u PinUpdate) Apply(pin *Pin) {
	if u.Title != nil {
		pin.Title = *u.Title
	}
	if u.Description != nil {
		pin.Description = *u.Description
	}
	if u.Link != nil {
		pin.Link = *u.Link
	}
	if u.AltText != nil {
		pin.AltText = *u.AltText
	}
	if u.BoardID != nil {
		pin.BoardID = *u.BoardID
	}
}

// BoardUpdate holds the board fields to change. Nil fields are left untouched.
type BoardUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Privacy     *string `json:"privacy,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u BoardUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Privacy == nil
}

// Apply writes the set fields onto board.
func (u BoardUpdate) Apply(board *Board) {
	if u.Name != nil {
		board.Name = *u.Name
	}
	if u.Description != nil {
		board.Description = *u.Description
	}
	if u.Privacy != nil {
		board.Privacy = *u.Privacy
	}
}

// Client is the single-item API used by the adapters.
// Implementations must be safe for concurrent use.
type Client interface {
	GetPin(ctx context.Context, id string) (*Pin, error)
	UpdatePin(ctx context.Context, id string, update PinUpdate) (*Pin, error)
	DeletePin(ctx context.Context, id string) error

	GetBoard(ctx context.Context, id string) (*Board, error)
	UpdateBoard(ctx context.Context, id string, update BoardUpdate) (*Board, error)
	DeleteBoard(ctx context.Context, id string) error
}
