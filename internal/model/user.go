package model

import (
	"fmt"
	"time"
)

// User represents an authentication user (warehouse staff, not customers).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles. The set is closed: an unrecognized role string maps to no
// permissions at all rather than being looked up dynamically.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
)

// Permission names a capability a role grants.
type Permission string

const (
	// PermInventoryMovement gates scan-batch submission (the only write
	// path into the movement ledger).
	PermInventoryMovement Permission = "inventory_movement"
	// PermMasterData gates writes to locations, customers, gates and rate
	// tables.
	PermMasterData Permission = "master_data"
	// PermUserAdmin gates user management.
	PermUserAdmin Permission = "user_admin"
)

// rolePermissions is the total role → permission-set mapping.
var rolePermissions = map[string][]Permission{
	RoleAdmin:    {PermInventoryMovement, PermMasterData, PermUserAdmin},
	RoleManager:  {PermInventoryMovement, PermMasterData},
	RoleOperator: {PermInventoryMovement},
}

// Permissions returns the permission set for a role. Unknown roles get the
// empty set, never an error, so a stale token cannot panic the server.
func Permissions(role string) []Permission {
	return rolePermissions[role]
}

// HasPermission reports whether the role grants the permission.
func HasPermission(role string, p Permission) bool {
	for _, q := range rolePermissions[role] {
		if q == p {
			return true
		}
	}
	return false
}

// ValidRole reports whether the role is part of the closed role set.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
