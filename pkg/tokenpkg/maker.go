// Package tokenpkg issues and verifies client access tokens.
package tokenpkg

import "time"

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a new token for a specific client and duration.
	CreateToken(clientID int32, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}
