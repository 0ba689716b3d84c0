package models

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-char dashless UUID, the primary key format for all
// Langar documents.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
