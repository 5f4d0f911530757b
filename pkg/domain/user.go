package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the owner of linked accounts.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ConsentGranted bool      `json:"consent_granted"`
	CreatedAt      time.Time `json:"created_at"`
}
