package constants

import "fmt"

// Roles carried in the JWT role claims; these follow WordPress role names.
const (
	RoleAdministrator = "administrator"
)

// Role error templates
const (
	ErrOnlyAdminsCanAccess = "Only site administrators may use %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

var (
	AdminOnly = []string{
		RoleAdministrator,
	}
)
