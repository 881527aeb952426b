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

package policy_test

import (
	. "gopkg.in/check.v1"

	"github.com/snapcore/cerberus/policy"
)

type teSuite struct{}

var _ = Suite(&teSuite{})

func allowRule(source, target string, class policy.ObjectClass, perms policy.Permission) *policy.TeRule {
	return &policy.TeRule{Source: source, Target: target, Class: class, Permissions: perms, Kind: policy.RuleAllow}
}

func (*teSuite) TestAllowGrantsSubset(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_t", "user_home_t", policy.ClassFile, policy.FileRead),
		},
	}
	res := rs.EvaluateAccess("httpd_t", "user_home_t", policy.ClassFile, policy.PermRead|policy.PermOpen, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
	c.Check(res.Audit, Equals, false)

	res = rs.EvaluateAccess("httpd_t", "user_home_t", policy.ClassFile, policy.FileWrite, false)
	c.Check(res.Decision, Equals, policy.DecisionDeny)
	c.Check(res.Audit, Equals, true)
	c.Check(res.Reason, Matches, ".*write.*")
}

func (*teSuite) TestClassMustMatchExactly(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_t", "user_home_t", policy.ClassFile, policy.FileRead),
		},
	}
	res := rs.EvaluateAccess("httpd_t", "user_home_t", policy.ClassDir, policy.PermRead, false)
	c.Check(res.Decision, Equals, policy.DecisionDeny)
}

func (*teSuite) TestMonotonicAccumulation(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_t", "user_home_t", policy.ClassFile, policy.PermRead),
			allowRule("httpd_t", "user_home_t", policy.ClassFile, policy.PermOpen),
		},
	}
	// Permissions from separate allow rules accumulate.
	res := rs.EvaluateAccess("httpd_t", "user_home_t", policy.ClassFile, policy.PermRead|policy.PermOpen, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)

	// Adding an unrelated rule never reduces what was grantable.
	rs.TeRules = append(rs.TeRules, allowRule("ftpd_t", "ftp_data_t", policy.ClassFile, policy.PermWrite))
	res = rs.EvaluateAccess("httpd_t", "user_home_t", policy.ClassFile, policy.PermRead|policy.PermOpen, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
}

func (*teSuite) TestNeverallowVeto(c *C) {
	never := &policy.TeRule{
		Source: "httpd_t", Target: "shadow_t", Class: policy.ClassFile,
		Permissions: policy.PermRead | policy.PermWrite, Kind: policy.RuleNeverallow,
	}
	allow := allowRule("httpd_t", "shadow_t", policy.ClassFile, policy.FileRead)

	// The veto wins regardless of insertion order.
	for _, rules := range [][]*policy.TeRule{{never, allow}, {allow, never}} {
		rs := &policy.RuleSet{TeRules: rules}
		res := rs.EvaluateAccess("httpd_t", "shadow_t", policy.ClassFile, policy.PermRead, false)
		c.Check(res.Decision, Equals, policy.DecisionDeny)
		c.Check(res.Audit, Equals, true)
		c.Check(res.Reason, Matches, ".*neverallow.*")
	}
}

func (*teSuite) TestNeverallowRequiresOverlap(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_t", "content_t", policy.ClassFile, policy.FileRead),
			{
				Source: "httpd_t", Target: "content_t", Class: policy.ClassFile,
				Permissions: policy.PermWrite, Kind: policy.RuleNeverallow,
			},
		},
	}
	// The neverallow covers write only, so reading is still granted.
	res := rs.EvaluateAccess("httpd_t", "content_t", policy.ClassFile, policy.PermRead|policy.PermOpen, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
}

func (*teSuite) TestWildcardMatching(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_*", "content_t", policy.ClassFile, policy.PermRead),
		},
	}
	for typ, expected := range map[string]policy.Decision{
		"httpd_t":      policy.DecisionAllow,
		"httpd_exec_t": policy.DecisionAllow,
		"ftpd_t":       policy.DecisionDeny,
	} {
		res := rs.EvaluateAccess(typ, "content_t", policy.ClassFile, policy.PermRead, false)
		c.Check(res.Decision, Equals, expected, Commentf("source type %q", typ))
	}

	rs.TeRules = []*policy.TeRule{allowRule("*", "*", policy.ClassFile, policy.PermRead)}
	res := rs.EvaluateAccess("anything_t", "whatever_t", policy.ClassFile, policy.PermRead, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
}

func (*teSuite) TestDontauditSuppressesDenialAudit(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			{
				Source: "httpd_t", Target: "shadow_t", Class: policy.ClassFile,
				Permissions: policy.FileRead, Kind: policy.RuleDontaudit,
			},
		},
	}
	res := rs.EvaluateAccess("httpd_t", "shadow_t", policy.ClassFile, policy.PermRead, false)
	c.Check(res.Decision, Equals, policy.DecisionDeny)
	c.Check(res.Audit, Equals, false)

	// A denial not fully covered by dontaudit is still audited.
	res = rs.EvaluateAccess("httpd_t", "shadow_t", policy.ClassFile, policy.PermRead|policy.PermWrite, false)
	c.Check(res.Decision, Equals, policy.DecisionDeny)
	c.Check(res.Audit, Equals, true)
}

func (*teSuite) TestAuditallowForcesAuditOnGrant(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("backup_t", "shadow_t", policy.ClassFile, policy.FileRead),
			{
				Source: "backup_t", Target: "shadow_t", Class: policy.ClassFile,
				Permissions: policy.PermRead, Kind: policy.RuleAuditallow,
			},
		},
	}
	res := rs.EvaluateAccess("backup_t", "shadow_t", policy.ClassFile, policy.PermRead, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
	c.Check(res.Audit, Equals, true)

	// Without overlap the grant stays unaudited.
	res = rs.EvaluateAccess("backup_t", "shadow_t", policy.ClassFile, policy.PermOpen, false)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
	c.Check(res.Audit, Equals, false)
}

func (*teSuite) TestAuditGrantsGlobal(c *C) {
	rs := &policy.RuleSet{
		TeRules: []*policy.TeRule{
			allowRule("httpd_t", "content_t", policy.ClassFile, policy.PermRead),
		},
	}
	res := rs.EvaluateAccess("httpd_t", "content_t", policy.ClassFile, policy.PermRead, true)
	c.Check(res.Decision, Equals, policy.DecisionAllow)
	c.Check(res.Audit, Equals, true)
}

func (*teSuite) TestRuleValidate(c *C) {
	good := allowRule("a_t", "b_t", policy.ClassFile, policy.PermRead)
	c.Check(good.Validate(), IsNil)

	bad := allowRule("", "b_t", policy.ClassFile, policy.PermRead)
	c.Check(bad.Validate(), NotNil)
	bad = allowRule("a_t", "b_t", policy.ObjectClass(999), policy.PermRead)
	c.Check(bad.Validate(), NotNil)
	bad = allowRule("a_t", "b_t", policy.ClassFile, 0)
	c.Check(bad.Validate(), NotNil)
	bad = &policy.TeRule{Source: "a_t", Target: "b_t", Class: policy.ClassFile, Permissions: policy.PermRead, Kind: policy.TeRuleKind(42)}
	c.Check(bad.Validate(), NotNil)
}

func (*teSuite) TestRuleString(c *C) {
	r := allowRule("httpd_t", "content_t", policy.ClassFile, policy.PermRead|policy.PermOpen)
	c.Check(r.String(), Equals, "allow httpd_t content_t:file { read|open }")
}

type transitionSuite struct{}

var _ = Suite(&transitionSuite{})

func (*transitionSuite) TestComputeTypeTransition(c *C) {
	rs := &policy.RuleSet{
		TypeTransitions: []*policy.TypeTransition{
			{Source: "init_t", Target: "httpd_exec_t", Class: policy.ClassProcess, NewType: "httpd_t"},
			{Source: "httpd_t", Target: "tmp_t", Class: policy.ClassFile, NewType: "httpd_tmp_t"},
		},
	}
	newType, ok := rs.ComputeTypeTransition("init_t", "httpd_exec_t", policy.ClassProcess, "")
	c.Assert(ok, Equals, true)
	c.Check(newType, Equals, "httpd_t")

	newType, ok = rs.ComputeTypeTransition("httpd_t", "tmp_t", policy.ClassFile, "session.lock")
	c.Assert(ok, Equals, true)
	c.Check(newType, Equals, "httpd_tmp_t")

	_, ok = rs.ComputeTypeTransition("ftpd_t", "tmp_t", policy.ClassFile, "")
	c.Check(ok, Equals, false)
}

func (*transitionSuite) TestNamedTransitionTakesPrecedence(c *C) {
	rs := &policy.RuleSet{
		TypeTransitions: []*policy.TypeTransition{
			{Source: "sshd_t", Target: "home_t", Class: policy.ClassFile, NewType: "user_file_t"},
			{Source: "sshd_t", Target: "home_t", Class: policy.ClassFile, NewType: "ssh_keys_t", ObjectName: "authorized_keys"},
		},
	}
	newType, ok := rs.ComputeTypeTransition("sshd_t", "home_t", policy.ClassFile, "authorized_keys")
	c.Assert(ok, Equals, true)
	c.Check(newType, Equals, "ssh_keys_t")

	newType, ok = rs.ComputeTypeTransition("sshd_t", "home_t", policy.ClassFile, "notes.txt")
	c.Assert(ok, Equals, true)
	c.Check(newType, Equals, "user_file_t")
}

func (*transitionSuite) TestComputeRoleTransition(c *C) {
	rs := &policy.RuleSet{
		RoleTransitions: []*policy.RoleTransition{
			{Role: "sysadm_r", Type: "httpd_exec_t", NewRole: "system_r"},
		},
	}
	newRole, ok := rs.ComputeRoleTransition("sysadm_r", "httpd_exec_t")
	c.Assert(ok, Equals, true)
	c.Check(newRole, Equals, "system_r")

	_, ok = rs.ComputeRoleTransition("user_r", "httpd_exec_t")
	c.Check(ok, Equals, false)
}
