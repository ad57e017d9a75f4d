package models

import (
	"time"
)

// Model defines the base interface for locally persisted entities.
type Model interface {
	Key() int64           // Key returns the identifier the entity is stored under
	CreatedAt() time.Time // CreatedAt returns when the entity was first written locally
	Validate() error      // Validate checks the entity before it is written
}

// Page is the paged list envelope returned by list endpoints.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return !p.Last && p.Number+1 < p.TotalPages }

// FieldError is one entry of [ErrorResponse.Errors].
type FieldError struct {
	Field         string `json:"field"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
	Message       string `json:"message"`
}

// ErrorResponse is the JSON body the backend sends with 4xx and 5xx responses.
type ErrorResponse struct {
	Timestamp string       `json:"timestamp,omitempty"`
	Status    int          `json:"status"`
	Code      string       `json:"code,omitempty"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
}
