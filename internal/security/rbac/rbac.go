// Package rbac authorizes calls on the admin control surface: who may pull
// another principal's brake, who may decide approvals.
package rbac

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// Authorizer answers whether subject may perform act on resource.
type Authorizer interface {
	Can(subject, resource, action string) bool
}

// defaultModel is a plain RBAC model with wildcard support.
const defaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

// CasbinAuthorizer enforces a casbin policy.
type CasbinAuthorizer struct {
	enforcer *casbin.Enforcer
}

// NewCasbin loads the model (file or built-in default) and a CSV policy file.
func NewCasbin(modelFile, policyFile string) (*CasbinAuthorizer, error) {
	var m model.Model
	var err error
	if modelFile != "" {
		m, err = model.NewModelFromFile(modelFile)
	} else {
		m, err = model.NewModelFromString(defaultModel)
	}
	if err != nil {
		return nil, fmt.Errorf("rbac: load model: %w", err)
	}

	var e *casbin.Enforcer
	if policyFile != "" {
		e, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(policyFile))
	} else {
		e, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("rbac: create enforcer: %w", err)
	}
	return &CasbinAuthorizer{enforcer: e}, nil
}

func (a *CasbinAuthorizer) Can(subject, resource, action string) bool {
	ok, err := a.enforcer.Enforce(subject, resource, action)
	if err != nil {
		slog.Warn("rbac enforce failed, denying", "subject", subject, "resource", resource, "action", action, "error", err)
		return false
	}
	return ok
}

// Grant adds an allow rule; used for bootstrap and tests.
func (a *CasbinAuthorizer) Grant(subject, resource, action string) error {
	_, err := a.enforcer.AddPolicy(subject, resource, action)
	return err
}

// AssignRole links a subject to a role.
func (a *CasbinAuthorizer) AssignRole(subject, role string) error {
	_, err := a.enforcer.AddGroupingPolicy(subject, role)
	return err
}

// AllowAll permits everything; dev fallback when no policy is configured.
type AllowAll struct{}

func (AllowAll) Can(string, string, string) bool { return true }
