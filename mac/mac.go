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

// Package mac implements the mandatory access control decision engine:
// the single authority every privileged kernel operation consults
// before proceeding. It combines label-based type enforcement rules
// with path-attached profiles under one mode controller, in front of a
// bounded decision cache.
//
// The engine is an explicit value owned by the security subsystem and
// handed to enforcement call sites through the Checker interface; there
// is no process-wide singleton. All engine operations are pure
// in-memory computations which never sleep or perform I/O, so they are
// safe to call from any kernel execution context.
package mac

import (
	"fmt"

	"github.com/snapcore/cerberus/policy"
	"github.com/snapcore/cerberus/policy/apparmor"
)

// Mode selects how the engine treats evaluated denials.
type Mode int

const (
	// ModeDisabled short-circuits every check to Allow without
	// consulting rules or cache.
	ModeDisabled Mode = iota
	// ModePermissive evaluates normally but converts denials to
	// audited allows, preserving forensic visibility without
	// enforcement.
	ModePermissive
	// ModeEnforcing returns evaluated decisions unmodified.
	ModeEnforcing
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModePermissive:
		return "permissive"
	case ModeEnforcing:
		return "enforcing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name as used in the engine options file.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disabled":
		return ModeDisabled, nil
	case "permissive":
		return ModePermissive, nil
	case "enforcing":
		return ModeEnforcing, nil
	}
	return ModeDisabled, fmt.Errorf("cannot parse mode %q: expected disabled, permissive or enforcing", s)
}

// AccessResult is the outcome of one access check as returned to the
// enforcement call site. A Deny decision must abort the mediated
// operation; mapping it to a caller-appropriate error is the caller's
// responsibility.
type AccessResult struct {
	Decision policy.Decision
	// Audit reports whether the decision should be recorded by the
	// audit sink. The engine has already emitted the record; callers
	// may use the flag for their own bookkeeping.
	Audit  bool
	Reason string
}

// Stats is a snapshot of the engine's monotonic counters, plus the
// current size of the rule store and cache.
type Stats struct {
	Checks      uint64
	Allowed     uint64
	Denied      uint64
	Audited     uint64
	CacheHits   uint64
	CacheMisses uint64

	TeRules      int
	Profiles     int
	CacheEntries int
}

// Checker is the interface enforcement call sites hold on the engine.
type Checker interface {
	// CheckAccess decides the type enforcement path: it resolves the
	// subject and object labels and evaluates the rule store.
	CheckAccess(pid int, path string, class policy.ObjectClass, requested policy.Permission) AccessResult
	// CheckAAAccess decides the profile path for a path-profiled
	// subject.
	CheckAAAccess(profileName, path string, requested apparmor.FilePermission) AccessResult
}
