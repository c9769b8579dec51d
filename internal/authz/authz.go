// Package authz decides how much of the archive a profile may list. The
// rules live in an embedded casbin model and policy; profiles map onto two
// role:-prefixed roles, one that sees every document and one that sees only its own.
package authz

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const (
	objDocuments = "documents"
	actListAll   = "list_all"
	actListOwn   = "list_own"
)

// Scope is the set of documents a profile may list.
type Scope int

const (
	// ScopeNone lists nothing.
	ScopeNone Scope = iota
	// ScopeOwn lists documents whose author is the requester.
	ScopeOwn
	// ScopeAll lists every document.
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwn:
		return "own"
	default:
		return "none"
	}
}

// Policy evaluates document visibility. It is read-only after construction
// and safe for concurrent use.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy loads the embedded model and policy.
func NewPolicy() (*Policy, error) {
	return NewPolicyFromStrings(embeddedModel, embeddedPolicy)
}

// NewPolicyFromStrings builds a Policy from a casbin model and CSV policy.
func NewPolicyFromStrings(modelText, policyText string) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("loading casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(policyText))
	if err != nil {
		return nil, fmt.Errorf("creating casbin enforcer: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// DocumentScope returns the listing scope for profile. Profile names are
// matched exactly. A profile only gains a scope through a g mapping; unknown
// profiles and bare role names get ScopeNone.
func (p *Policy) DocumentScope(profile string) (Scope, error) {
	roles, err := p.enforcer.GetRolesForUser(profile)
	if err != nil {
		return ScopeNone, fmt.Errorf("resolving roles for %q: %w", profile, err)
	}
	if len(roles) == 0 {
		return ScopeNone, nil
	}

	all, err := p.enforcer.Enforce(profile, objDocuments, actListAll)
	if err != nil {
		return ScopeNone, fmt.Errorf("enforcing %s: %w", actListAll, err)
	}
	if all {
		return ScopeAll, nil
	}
	own, err := p.enforcer.Enforce(profile, objDocuments, actListOwn)
	if err != nil {
		return ScopeNone, fmt.Errorf("enforcing %s: %w", actListOwn, err)
	}
	if own {
		return ScopeOwn, nil
	}
	return ScopeNone, nil
}
