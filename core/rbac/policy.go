package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Permission names checked by the API layer.
const (
	PermUsersManage     = "users.manage"
	PermSystemsView     = "systems.view"
	PermSystemsUpdate   = "systems.update"
	PermSystemsSwitch   = "systems.switch"
	PermScenariosView   = "scenarios.view"
	PermScenariosManage = "scenarios.manage"
	PermScenariosRun    = "scenarios.execute"
	PermIncidentsView   = "incidents.view"
	PermIncidentsManage = "incidents.manage"
	PermLogsView        = "logs.view"
)

const modelText = `
[request_definition]
r = sub, perm

[policy_definition]
p = sub, perm

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.perm == p.perm
`

// Policy answers role/permission checks. Rules live in code: the role set
// is fixed (admin, atsep) and admin inherits everything atsep can do.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	rules := [][]string{
		{"atsep", PermSystemsView},
		{"atsep", PermSystemsUpdate},
		{"atsep", PermSystemsSwitch},
		{"atsep", PermScenariosView},
		{"atsep", PermScenariosRun},
		{"atsep", PermIncidentsView},
		{"atsep", PermIncidentsManage},
		{"atsep", PermLogsView},
		{"admin", PermUsersManage},
		{"admin", PermScenariosManage},
	}
	for _, rule := range rules {
		if _, err := e.AddPolicy(rule[0], rule[1]); err != nil {
			return nil, err
		}
	}
	if _, err := e.AddGroupingPolicy("admin", "atsep"); err != nil {
		return nil, err
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(role, perm string) bool {
	ok, err := p.enforcer.Enforce(role, perm)
	return err == nil && ok
}
