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

package apparmor

import (
	"fmt"

	"github.com/snapcore/cerberus/policy"
	"github.com/snapcore/cerberus/policy/patterns"
)

// Result is the raw outcome of evaluating a profile for one request,
// before any engine mode adjustment.
type Result struct {
	Decision policy.Decision
	Audit    bool
	Reason   string
}

// EvaluateFile decides whether the profile grants the requested file
// permissions on the given path.
//
// A profile in complain mode allows everything, audited. Otherwise file
// rules are scanned in order and the first matching rule whose
// permission set covers the whole request grants it, audited when the
// profile carries the audit flag. Rules marked owner are only
// considered when the subject owns the object, which the caller
// indicates via owner. If no rule grants the full request the access is
// denied and always audited.
func (p *Profile) EvaluateFile(path string, requested FilePermission, owner bool) Result {
	if p.Flags&FlagComplain != 0 {
		return Result{
			Decision: policy.DecisionAllow,
			Audit:    true,
			Reason:   fmt.Sprintf("profile %q in complain mode", p.Name),
		}
	}
	for i := range p.FileRules {
		rule := &p.FileRules[i]
		if rule.Owner && !owner {
			continue
		}
		if !patterns.MatchPath(rule.Path, path) {
			continue
		}
		if rule.Permissions.Contains(requested) {
			return Result{
				Decision: policy.DecisionAllow,
				Audit:    p.Flags&FlagAudit != 0,
				Reason:   fmt.Sprintf("profile %q rule %q grants { %s }", p.Name, rule.Path, requested),
			}
		}
	}
	return Result{
		Decision: policy.DecisionDeny,
		Audit:    true,
		Reason:   fmt.Sprintf("profile %q denies { %s } on %q", p.Name, requested, path),
	}
}

// EvaluateCapability decides whether the profile permits use of the
// named POSIX capability, following the same complain and audit
// conventions as EvaluateFile.
func (p *Profile) EvaluateCapability(capability string) Result {
	if p.Flags&FlagComplain != 0 {
		return Result{
			Decision: policy.DecisionAllow,
			Audit:    true,
			Reason:   fmt.Sprintf("profile %q in complain mode", p.Name),
		}
	}
	for _, rule := range p.CapabilityRules {
		if rule.Capability == capability {
			return Result{
				Decision: policy.DecisionAllow,
				Audit:    p.Flags&FlagAudit != 0,
				Reason:   fmt.Sprintf("profile %q grants capability %q", p.Name, capability),
			}
		}
	}
	return Result{
		Decision: policy.DecisionDeny,
		Audit:    true,
		Reason:   fmt.Sprintf("profile %q denies capability %q", p.Name, capability),
	}
}

// AttachesTo reports whether this profile's attach pattern matches the
// given executable path. Profiles without an attach pattern never match
// by path; they are attached explicitly by name.
func (p *Profile) AttachesTo(exe string) bool {
	if p.Attach == "" {
		return false
	}
	matched, err := patterns.MatchAttach(p.Attach, exe)
	if err != nil {
		// Attach patterns are validated on installation.
		return false
	}
	return matched
}
