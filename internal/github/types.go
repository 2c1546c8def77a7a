package github

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Branch is the subset of branch state the auditor reads.
type Branch struct {
	Name      string
	Protected bool
}

// ProtectionPolicy is the set of classic branch protection toggles applied to
// an unprotected branch.
type ProtectionPolicy struct {
	EnforceAdmins                bool
	DismissStaleReviews          bool
	RequireCodeOwnerReviews      bool
	RequiredApprovingReviewCount int
	AllowForcePushes             bool
	AllowDeletions               bool
}

// DefaultProtectionPolicy returns the fixed policy applied to critical branches.
func DefaultProtectionPolicy() ProtectionPolicy {
	return ProtectionPolicy{
		EnforceAdmins:                true,
		DismissStaleReviews:          true,
		RequireCodeOwnerReviews:      true,
		RequiredApprovingReviewCount: 1,
		AllowForcePushes:             false,
		AllowDeletions:               false,
	}
}

type DeployKey struct {
	ID       int64
	Title    string
	ReadOnly bool
}

// Collaborator carries the permission set as returned by the list endpoint,
// i.e. before any update made during the run.
type Collaborator struct {
	Login       string
	Permissions map[string]bool
	RoleName    string
}

// permissionOrder lists tiers from least to most privileged.
var permissionOrder = []string{"pull", "triage", "push", "maintain", "admin"}

// FormatPermissions renders the permission set deterministically, e.g.
// "admin=false maintain=false pull=true push=false triage=false".
func FormatPermissions(p map[string]bool) string {
	if len(p) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%t", k, p[k]))
	}
	return strings.Join(parts, " ")
}

// ValidPermission reports whether level is a tier the collaborator endpoint accepts.
func ValidPermission(level string) bool {
	for _, p := range permissionOrder {
		if p == level {
			return true
		}
	}
	return false
}

// PermissionLevels lists accepted tiers, least privileged first.
func PermissionLevels() []string {
	out := make([]string, len(permissionOrder))
	copy(out, permissionOrder)
	return out
}

// PermissionUpdate is the raw outcome of a collaborator permission request.
type PermissionUpdate struct {
	StatusCode int
	Body       string
}

// Applied reports whether the provider acknowledged the update with 204 No Content.
func (u *PermissionUpdate) Applied() bool {
	return u != nil && u.StatusCode == http.StatusNoContent
}
