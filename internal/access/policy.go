package access

import "sort"

// 权限点
const (
	PermDashboard = "dashboard"

	PermSalesAdd    = "sales.add"
	PermSalesEdit   = "sales.edit"
	PermSalesDelete = "sales.delete"
	PermSalesView   = "sales.view"

	PermMobilesAdd    = "mobiles.add"
	PermMobilesEdit   = "mobiles.edit"
	PermMobilesDelete = "mobiles.delete"
	PermMobilesView   = "mobiles.view"

	PermModelsAdd    = "models.add"
	PermModelsEdit   = "models.edit"
	PermModelsDelete = "models.delete"
	PermModelsView   = "models.view"

	PermPartsAdd    = "parts.add"
	PermPartsEdit   = "parts.edit"
	PermPartsDelete = "parts.delete"
	PermPartsView   = "parts.view"

	PermSettingsView = "settings.view"
	PermSettingsEdit = "settings.edit"

	// PermAll 通配
	PermAll = "*"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultRoles 默认角色权限
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleAdmin: {
			PermDashboard,
			PermSalesAdd, PermSalesEdit, PermSalesDelete, PermSalesView,
			PermMobilesAdd, PermMobilesEdit, PermMobilesDelete, PermMobilesView,
			PermModelsAdd, PermModelsEdit, PermModelsDelete, PermModelsView,
			PermPartsAdd, PermPartsEdit, PermPartsDelete, PermPartsView,
			PermSettingsView, PermSettingsEdit,
		},
		RoleUser: {
			PermSalesAdd, PermSalesView,
			PermMobilesView, PermModelsView, PermPartsView,
		},
	}
}

// Policy 角色 -> 权限集合
type Policy struct {
	roles map[string]map[string]struct{}
}

// NewPolicy 由配置构建策略，roles 为空时使用默认角色
func NewPolicy(roles map[string][]string) *Policy {
	if len(roles) == 0 {
		roles = DefaultRoles()
	}
	p := &Policy{roles: make(map[string]map[string]struct{}, len(roles))}
	for role, perms := range roles {
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		p.roles[role] = set
	}
	return p
}

// Allows 任一角色拥有该权限即通过
func (p *Policy) Allows(roles []string, permission string) bool {
	for _, role := range roles {
		set, ok := p.roles[role]
		if !ok {
			continue
		}
		if _, ok := set[PermAll]; ok {
			return true
		}
		if _, ok := set[permission]; ok {
			return true
		}
	}
	return false
}

// Permissions 角色集合的权限并集（排序后返回）
func (p *Policy) Permissions(roles []string) []string {
	seen := make(map[string]struct{})
	for _, role := range roles {
		for perm := range p.roles[role] {
			seen[perm] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for perm := range seen {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// HasRole 策略中是否定义了该角色
func (p *Policy) HasRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}
