// Package security provides authorization primitives and posting policies.
package security

// Permission names checked by the HTTP layer.
const (
	PermCatalogRead      = "catalog:read"
	PermCatalogWrite     = "catalog:write"
	PermSalesRead        = "sales:read"
	PermSalesWrite       = "sales:write"
	PermProcurementRead  = "procurement:read"
	PermProcurementWrite = "procurement:write"
	PermFinanceRead      = "finance:read"
	PermFinanceWrite     = "finance:write"
)

// Role is a named bundle of permissions.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleCashier    Role = "cashier"
	RoleBuyer      Role = "buyer"
	RoleViewer     Role = "viewer"
)

var rolePermissions = map[Role][]string{
	RoleAccountant: {
		PermCatalogRead, PermSalesRead, PermProcurementRead,
		PermFinanceRead, PermFinanceWrite,
	},
	RoleCashier: {
		PermCatalogRead, PermSalesRead, PermSalesWrite,
	},
	RoleBuyer: {
		PermCatalogRead, PermCatalogWrite, PermProcurementRead, PermProcurementWrite,
	},
	RoleViewer: {
		PermCatalogRead, PermSalesRead, PermProcurementRead, PermFinanceRead,
	},
}

// PermissionsFor flattens the permissions granted by roles, without duplicates.
// Admins get no explicit list; IsAdmin bypasses checks.
func PermissionsFor(roles ...Role) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range roles {
		for _, p := range rolePermissions[r] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
