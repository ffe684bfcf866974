package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the auth collaborator's user record this service
// reads: identity, referral linkage and the admin flag. Registration and
// credentials are managed elsewhere.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	ReferralCode *string    `json:"referral_code,omitempty" db:"referral_code"`
	ReferredBy   *uuid.UUID `json:"referred_by,omitempty" db:"referred_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// AuditLog records an administrative action.
type AuditLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AdminID   uuid.UUID `json:"admin_id" db:"admin_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"timestamp" db:"created_at"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
