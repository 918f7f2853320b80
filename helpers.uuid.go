package main

import (
	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for generating and validating record ids.
type UIDHandler interface {
	Generate() string
	IsValid(id string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier.
func (idh *IDsHandler) Generate() string {
	id, _ := uuid.NewV4()
	return id.String()
}

// IsValid checks if a given string is a valid uuid.
func (idh *IDsHandler) IsValid(id string) bool {
	if u := uuid.FromStringOrNil(id); u != uuid.Nil {
		return true
	}
	return false
}
