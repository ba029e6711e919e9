package http

import (
	"errors"

	"thesisreg/internal/auth"
)

// forbiddenError marks an ownership denial so handlers can map it to 403
// with the human-readable reason, distinct from lookup failures.
type forbiddenError struct {
	reason string
}

func (e *forbiddenError) Error() string { return e.reason }

func isForbidden(err error) bool {
	var fe *forbiddenError
	return errors.As(err, &fe)
}

// authorizeOwnerID grants access when the caller is an admin or when the
// caller's token subject matches ownerID.
func authorizeOwnerID(claims *auth.Claims, ownerID int64, reason string) error {
	return authorizeOwner(claims, reason, func() (int64, error) {
		return ownerID, nil
	})
}

// authorizeOwner is the single ownership gate: admins are waived, everyone
// else must resolve to the resource owner. resolve runs only for
// non-admins, so lookups needed purely for the ownership check are skipped
// on the admin path.
func authorizeOwner(claims *auth.Claims, reason string, resolve func() (int64, error)) error {
	if claims == nil {
		return &forbiddenError{reason: reason}
	}
	if claims.Role == auth.RoleAdmin {
		return nil
	}
	ownerID, err := resolve()
	if err != nil {
		return err
	}
	if claims.UserID() != ownerID {
		return &forbiddenError{reason: reason}
	}
	return nil
}
