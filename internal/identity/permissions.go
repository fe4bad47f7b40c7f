package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"export-service/internal/core/domain"
	"export-service/internal/core/ports"
)

// Permissions recognized by the export module.
const (
	// PermissionExportAccess is the base permission required to list the
	// known export types.
	PermissionExportAccess = "export:access"

	// PermissionPlatformExport is the platform-level export permission.
	PermissionPlatformExport = "platform:export"

	// PermissionExportDownload is the module-level download permission.
	// Download requires either this or PermissionPlatformExport.
	PermissionExportDownload = "export:download"
)

// PermissionChecker answers whether a principal holds a named permission.
type PermissionChecker interface {
	HasPermission(ctx context.Context, principal domain.Principal, permission string) bool
}

// StaticPermissionChecker grants permissions from a fixed configuration:
// a default set applied to every authenticated user plus per-username grants.
type StaticPermissionChecker struct {
	defaults map[string]bool
	grants   map[string]map[string]bool
}

func NewStaticPermissionChecker(defaults []string, grants map[string][]string) *StaticPermissionChecker {
	checker := &StaticPermissionChecker{
		defaults: make(map[string]bool, len(defaults)),
		grants:   make(map[string]map[string]bool, len(grants)),
	}
	for _, permission := range defaults {
		checker.defaults[permission] = true
	}
	for username, permissions := range grants {
		set := make(map[string]bool, len(permissions))
		for _, permission := range permissions {
			set[permission] = true
		}
		checker.grants[username] = set
	}
	return checker
}

func (c *StaticPermissionChecker) HasPermission(ctx context.Context, principal domain.Principal, permission string) bool {
	if c.defaults[permission] {
		return true
	}
	return c.grants[principal.Username][permission]
}

// RequirePermission builds a per-type policy that allows the request when
// the principal holds the given permission. The deny error carries no
// detail; callers surface it as a generic Unauthorized.
func RequirePermission(checker PermissionChecker, permission string) ports.Policy {
	return func(ctx context.Context, principal domain.Principal, query json.RawMessage) error {
		if checker.HasPermission(ctx, principal, permission) {
			return nil
		}
		return fmt.Errorf("missing permission %s", permission)
	}
}
