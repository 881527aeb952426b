// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package policy

import (
	"fmt"

	"github.com/snapcore/cerberus/policy/patterns"
)

// Decision is the outcome of an access check.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
)

func (d Decision) String() string {
	if d == DecisionAllow {
		return "allow"
	}
	return "deny"
}

// TEResult is the raw outcome of evaluating the type enforcement rules
// for one request, before any engine mode adjustment.
type TEResult struct {
	Decision Decision
	Audit    bool
	Reason   string
}

// RuleSet is the ordered store of type enforcement rules and
// transitions. It has no locking of its own; the engine serializes
// access to it.
type RuleSet struct {
	TeRules         []*TeRule
	TypeTransitions []*TypeTransition
	RoleTransitions []*RoleTransition
}

func (rs *RuleSet) matches(r *TeRule, sourceType, targetType string, class ObjectClass) bool {
	return r.Class == class &&
		patterns.MatchType(r.Source, sourceType) &&
		patterns.MatchType(r.Target, targetType)
}

// EvaluateAccess decides whether the requested permissions are granted
// for the given (source type, target type, class) triple.
//
// Allow rule permissions accumulate as a monotonic union, so rule order
// never affects the outcome. A matching neverallow rule whose
// permissions overlap the request vetoes the access outright and cannot
// be overridden by any allow rule. Denials carry the denied permission
// set in the reason; their audit flag is cleared when a dontaudit rule
// covers the whole denied set. Grants are audited when auditGrants is
// set or when a matching auditallow rule overlaps the request.
func (rs *RuleSet) EvaluateAccess(sourceType, targetType string, class ObjectClass, requested Permission, auditGrants bool) TEResult {
	var allowed, dontaudit Permission
	auditForced := false

	for _, r := range rs.TeRules {
		if !rs.matches(r, sourceType, targetType, class) {
			continue
		}
		switch r.Kind {
		case RuleAllow:
			allowed = allowed.Union(r.Permissions)
		case RuleDontaudit:
			dontaudit = dontaudit.Union(r.Permissions)
		case RuleAuditallow:
			if !r.Permissions.Intersect(requested).IsEmpty() {
				auditForced = true
			}
		case RuleNeverallow:
			if !r.Permissions.Intersect(requested).IsEmpty() {
				return TEResult{
					Decision: DecisionDeny,
					Audit:    true,
					Reason: fmt.Sprintf("neverallow rule forbids { %s } for %s -> %s:%s",
						r.Permissions.Intersect(requested), sourceType, targetType, class),
				}
			}
		}
	}

	if allowed.Contains(requested) {
		return TEResult{
			Decision: DecisionAllow,
			Audit:    auditGrants || auditForced,
			Reason:   fmt.Sprintf("granted { %s } for %s -> %s:%s", requested, sourceType, targetType, class),
		}
	}
	denied := requested.Difference(allowed)
	return TEResult{
		Decision: DecisionDeny,
		Audit:    !dontaudit.Contains(denied),
		Reason:   fmt.Sprintf("denied { %s } for %s -> %s:%s", denied, sourceType, targetType, class),
	}
}

// ComputeTypeTransition returns the type a newly created entity should
// receive for the given creation, or false if no transition rule
// applies. A transition with a matching object name takes precedence
// over one without.
func (rs *RuleSet) ComputeTypeTransition(sourceType, targetType string, class ObjectClass, objectName string) (string, bool) {
	var fallback string
	haveFallback := false
	for _, t := range rs.TypeTransitions {
		if t.Class != class {
			continue
		}
		if !patterns.MatchType(t.Source, sourceType) || !patterns.MatchType(t.Target, targetType) {
			continue
		}
		if t.ObjectName != "" {
			if t.ObjectName == objectName {
				return t.NewType, true
			}
			continue
		}
		if !haveFallback {
			fallback = t.NewType
			haveFallback = true
		}
	}
	return fallback, haveFallback
}

// ComputeRoleTransition returns the role a subject with the given role
// should switch to when executing an entrypoint of the given type, or
// false if no role transition applies.
func (rs *RuleSet) ComputeRoleTransition(role, targetType string) (string, bool) {
	for _, t := range rs.RoleTransitions {
		if t.Role == role && patterns.MatchType(t.Type, targetType) {
			return t.NewRole, true
		}
	}
	return "", false
}
