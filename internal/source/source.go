package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/pulse/internal/model"
)

// ErrFetchFailed is matched by every error returned from a failed fetch.
var ErrFetchFailed = errors.New("fetch failed")

// ErrMalformedRecord marks a document that could not be decoded into its
// collection's record type.
var ErrMalformedRecord = errors.New("malformed record")

// ErrUnknownCollection is returned by readers asked for a collection
// outside model.Collections.
var ErrUnknownCollection = errors.New("unknown collection")

// FetchError reports which collection read broke a fetch.
type FetchError struct {
	Collection model.Collection
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetchFailed) hold for any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// AuthError indicates that authentication has failed or expired for a
// backend. It is returned by readers when a 401 response is received.
type AuthError struct {
	Backend string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Backend, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Lister reads the full contents of a named collection.
type Lister interface {
	ListAll(ctx context.Context, collection model.Collection) ([]model.Document, error)
}

// Identity resolves the display name of the current user.
// An empty name with a nil error means no name is known.
type Identity interface {
	DisplayName(ctx context.Context) (string, error)
}

// Validator verifies credentials and connectivity. It returns a
// human-readable status message on success.
type Validator interface {
	ValidateConnection(ctx context.Context) (string, error)
}

// StaticIdentity is an Identity with a fixed name, used by backends that
// have no notion of a signed-in user.
type StaticIdentity string

// DisplayName returns the fixed name.
func (s StaticIdentity) DisplayName(context.Context) (string, error) {
	return string(s), nil
}

// KnownCollection reports whether c is one of model.Collections.
func KnownCollection(c model.Collection) bool {
	for _, known := range model.Collections {
		if known == c {
			return true
		}
	}
	return false
}
