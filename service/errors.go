package service

import (
	"errors"
)

var (
	// ErrNotFound means a referenced channel or record is absent. Callers treat it as benign.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a tracked record already exists for the key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAlreadyPaired means the voice channel already has a text channel, or the
	// text channel is paired with another voice channel
	ErrAlreadyPaired = errors.New("already paired")

	// ErrPermissionDenied means the requester is neither the channel owner nor an admin
	ErrPermissionDenied = errors.New("permission denied")

	// ErrOwnerStillPresent means a claim was attempted while the owner is in the channel
	ErrOwnerStillPresent = errors.New("owner still present")

	// ErrOwnerChanged means a compare-and-set on the owner lost a race
	ErrOwnerChanged = errors.New("owner changed concurrently")

	// ErrGatewayUnavailable is a transient platform failure that survived retries
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrRateLimited is a rate limit that survived retries
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput covers out-of-range limits, bitrates and names
	ErrInvalidInput = errors.New("invalid input")
)

// IsTransient reports whether err is worth retrying later
func IsTransient(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, ErrRateLimited)
}
