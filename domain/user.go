// Package domain contains core concepts of the messaging system.
// This file defines User records resolved from external identities.
// No storage, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

// User is the stable internal record behind an external auth subject.
type User struct {
	ID                  uuid.UUID
	ExternalIdentityKey string // verified auth subject, unique
	Name                string
	Email               string
	AvatarURL           string
	IsOnline            bool
}
