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

// Package policy implements the type enforcement half of the MAC
// decision engine: the permission vocabulary, the rule store, and the
// evaluator which turns a rule set and a requested access into an
// allow/deny verdict.
package policy

import (
	"fmt"
)

// TeRuleKind distinguishes the four classes of type enforcement rules.
type TeRuleKind int

const (
	// RuleAllow grants the rule's permissions.
	RuleAllow TeRuleKind = iota
	// RuleAuditallow marks granted permissions for forced auditing. It
	// never changes the outcome of a check.
	RuleAuditallow
	// RuleDontaudit suppresses audit records for denials of the rule's
	// permissions.
	RuleDontaudit
	// RuleNeverallow unconditionally forbids the rule's permissions,
	// overriding any allow rule. Used to assert policy invariants.
	RuleNeverallow
)

func (k TeRuleKind) String() string {
	switch k {
	case RuleAllow:
		return "allow"
	case RuleAuditallow:
		return "auditallow"
	case RuleDontaudit:
		return "dontaudit"
	case RuleNeverallow:
		return "neverallow"
	}
	return fmt.Sprintf("TeRuleKind(%d)", int(k))
}

// TeRule is one type enforcement rule. Source and Target are type
// patterns: an exact type, a prefix with a trailing '*', or the bare
// "*" matching every type.
type TeRule struct {
	Source      string
	Target      string
	Class       ObjectClass
	Permissions Permission
	Kind        TeRuleKind
}

func (r *TeRule) String() string {
	return fmt.Sprintf("%s %s %s:%s { %s }", r.Kind, r.Source, r.Target, r.Class, r.Permissions)
}

// Validate returns an error if the rule is malformed. The loader is
// expected to reject invalid rules before installing them.
func (r *TeRule) Validate() error {
	if r.Source == "" || r.Target == "" {
		return fmt.Errorf("cannot validate rule: empty type pattern")
	}
	if !r.Class.IsValid() {
		return fmt.Errorf("cannot validate rule: unknown object class %s", r.Class)
	}
	if r.Permissions.IsEmpty() {
		return fmt.Errorf("cannot validate rule: empty permission set")
	}
	switch r.Kind {
	case RuleAllow, RuleAuditallow, RuleDontaudit, RuleNeverallow:
		// ok
	default:
		return fmt.Errorf("cannot validate rule: unknown rule kind %s", r.Kind)
	}
	return nil
}

// TypeTransition describes the type a newly created subject or object
// should receive: when a subject of type Source creates an object of
// class Class in a container of type Target, the new entity gets type
// NewType. If ObjectName is non-empty the transition applies only when
// the new entity's final path component equals it, and such named
// transitions take precedence over unnamed ones.
type TypeTransition struct {
	Source     string
	Target     string
	Class      ObjectClass
	NewType    string
	ObjectName string
}

// RoleTransition describes the role a subject should switch to when
// executing an entrypoint of the given type. It is stored here but
// evaluated by the process manager at exec time.
type RoleTransition struct {
	Role    string
	Type    string
	NewRole string
}
