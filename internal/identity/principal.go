package identity

import (
	"github.com/redhatinsights/platform-go-middlewares/v2/identity"

	"export-service/internal/core/domain"
)

// IsValid reports whether the identity extracted by the platform middleware
// carries enough user information to act as a principal.
func IsValid(ident identity.XRHID) bool {
	if ident.Identity.User == nil || ident.Identity.User.Username == "" || ident.Identity.User.UserID == "" {
		return false
	}
	return true
}

// FromXRHID maps the platform identity header to the domain principal.
func FromXRHID(ident identity.XRHID) domain.Principal {
	return domain.Principal{
		OrgID:    ident.Identity.OrgID,
		Username: ident.Identity.User.Username,
		UserID:   ident.Identity.User.UserID,
	}
}
