package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an entry of the identity directory.
type User struct {
	ID        uuid.UUID
	Code      Code
	CreatedAt time.Time
}
