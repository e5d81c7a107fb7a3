package authsdk

import (
	"strings"
)

const (
	bootstrapRequiredReason = "required"

	// MaxBootstrapInvites is the largest batch a bootstrap may mint.
	MaxBootstrapInvites = 100
)

// Validate checks the request shape. Email format and password policy are
// enforced by the service. Returns field names mapped to reasons, or nil.
func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)

	email := strings.TrimSpace(b.AdminEmail)
	switch {
	case email == "":
		errs["admin_email"] = bootstrapRequiredReason
	case !strings.Contains(email, "@"):
		errs["admin_email"] = "Invalid email format"
	}

	if b.AdminPassword == "" {
		errs["admin_password"] = bootstrapRequiredReason
	}

	if b.InviteCount < 0 || b.InviteCount > MaxBootstrapInvites {
		errs["invite_count"] = "invite_count must be between 0 and 100"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
