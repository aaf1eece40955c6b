package access

import "slices"

// PermissionWildcard on an account bypasses any required-permission check.
const PermissionWildcard = "*"

// ResetPolicy controls which tracked players the sweep may automatically
// reset.
type ResetPolicy struct {
	// WhitelistOnly restricts automatic resets to whitelisted players.
	WhitelistOnly bool

	// Whitelist is always allowed regardless of account permissions.
	Whitelist []string

	// RequiredPermissions: a player's linked account must hold at least one
	// of these (or the wildcard) to be swept. Empty means no permission
	// requirement.
	RequiredPermissions []string
}

// AutoResetAllowed decides whether the sweep may reset the player. perms are
// the permission strings of the player's linked account; pass nil for an
// unlinked player.
func AutoResetAllowed(playerUUID string, perms []string, policy ResetPolicy) bool {
	whitelisted := slices.Contains(policy.Whitelist, playerUUID)

	if policy.WhitelistOnly {
		return whitelisted
	}
	if whitelisted {
		return true
	}
	if len(policy.RequiredPermissions) == 0 {
		return true
	}
	if slices.Contains(perms, PermissionWildcard) {
		return true
	}
	for _, required := range policy.RequiredPermissions {
		if slices.Contains(perms, required) {
			return true
		}
	}
	return false
}
