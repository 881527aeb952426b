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

// Package apparmor implements path-attached security profiles and their
// evaluation. In contrast with type enforcement rules, which mediate
// between abstract type pairs, a profile attaches to a program and
// mediates concrete filesystem paths via glob patterns.
package apparmor

import (
	"fmt"
	"strings"

	"github.com/snapcore/cerberus/policy/patterns"
)

// FilePermission is a set of file access permissions in a profile file
// rule. The specific values match sys/apparmor.h.
type FilePermission uint32

const (
	AA_MAY_EXEC   FilePermission = 1 << 0
	AA_MAY_WRITE  FilePermission = 1 << 1
	AA_MAY_READ   FilePermission = 1 << 2
	AA_MAY_APPEND FilePermission = 1 << 3
	AA_MAY_CREATE FilePermission = 1 << 4
	AA_MAY_DELETE FilePermission = 1 << 5
	AA_MAY_OPEN   FilePermission = 1 << 6
	AA_MAY_RENAME FilePermission = 1 << 7
	AA_MAY_LOCK   FilePermission = 0x8000
	AA_EXEC_MMAP  FilePermission = 0x10000
	AA_MAY_LINK   FilePermission = 0x40000
)

var filePermissionNames = []struct {
	mask FilePermission
	name string
}{
	{AA_MAY_EXEC, "execute"},
	{AA_MAY_WRITE, "write"},
	{AA_MAY_READ, "read"},
	{AA_MAY_APPEND, "append"},
	{AA_MAY_CREATE, "create"},
	{AA_MAY_DELETE, "delete"},
	{AA_MAY_OPEN, "open"},
	{AA_MAY_RENAME, "rename"},
	{AA_MAY_LOCK, "lock"},
	{AA_EXEC_MMAP, "execute-map"},
	{AA_MAY_LINK, "link"},
}

// Contains reports whether every permission in other is also in p.
func (p FilePermission) Contains(other FilePermission) bool {
	return p&other == other
}

// IsValid reports whether only defined permission bits are set.
func (p FilePermission) IsValid() bool {
	var defined FilePermission
	for _, perm := range filePermissionNames {
		defined |= perm.mask
	}
	return p&^defined == 0
}

// String returns the named permissions joined by '|', with undefined
// bits rendered in hex and the empty set rendered as "none".
func (p FilePermission) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, perm := range filePermissionNames {
		if p&perm.mask != 0 {
			names = append(names, perm.name)
			p &^= perm.mask
		}
	}
	if p != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(p)))
	}
	return strings.Join(names, "|")
}

// ProfileFlags alter how a whole profile is evaluated.
type ProfileFlags uint32

const (
	// FlagComplain forces every decision against the profile to Allow,
	// audited. This is per-profile complain mode, distinct from the
	// engine-wide permissive mode.
	FlagComplain ProfileFlags = 1 << iota
	// FlagAudit audits accesses granted by the profile's rules.
	FlagAudit
	// FlagMediateDeleted keeps mediating files after deletion.
	FlagMediateDeleted
	// FlagAttachDisconnected mediates objects disconnected from the
	// namespace root.
	FlagAttachDisconnected
)

var profileFlagNames = []struct {
	mask ProfileFlags
	name string
}{
	{FlagComplain, "complain"},
	{FlagAudit, "audit"},
	{FlagMediateDeleted, "mediate_deleted"},
	{FlagAttachDisconnected, "attach_disconnected"},
}

func (f ProfileFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, flag := range profileFlagNames {
		if f&flag.mask != 0 {
			names = append(names, flag.name)
			f &^= flag.mask
		}
	}
	if f != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(f)))
	}
	return strings.Join(names, ",")
}

// ExecMode describes what happens to a subject's profile when it
// executes a file matched by a file rule.
type ExecMode int

const (
	// ExecUnset leaves exec behavior to the engine default.
	ExecUnset ExecMode = iota
	// ExecInherit (ix) keeps the current profile across exec.
	ExecInherit
	// ExecProfile (px) switches to the profile attached to the target.
	ExecProfile
	// ExecChild (cx) switches to a child profile of the current one.
	ExecChild
	// ExecUnconfined (ux) drops confinement entirely.
	ExecUnconfined
)

func (m ExecMode) String() string {
	switch m {
	case ExecUnset:
		return ""
	case ExecInherit:
		return "ix"
	case ExecProfile:
		return "px"
	case ExecChild:
		return "cx"
	case ExecUnconfined:
		return "ux"
	}
	return fmt.Sprintf("ExecMode(%d)", int(m))
}

// FileRule grants file permissions on paths matching a pattern. Rules
// are evaluated in the order they appear in the profile.
type FileRule struct {
	// Path is the path pattern: exact, "prefix**" (everything under the
	// prefix), or "prefix*" (one further path segment at most).
	Path        string
	Permissions FilePermission
	// Exec, when set, tells the exec hook how to switch profiles when
	// this rule mediates an execve.
	Exec ExecMode
	// Owner restricts the rule to objects owned by the subject.
	Owner bool
}

// NetworkRule permits use of an address family, e.g. "inet stream".
type NetworkRule struct {
	Family string
	Type   string
}

// CapabilityRule permits use of a named POSIX capability.
type CapabilityRule struct {
	Capability string
}

// MountRule permits a mount operation.
type MountRule struct {
	Source string
	Target string
	FSType string
}

// DBusRule permits D-Bus traffic.
type DBusRule struct {
	Bus       string
	Path      string
	Interface string
}

// SignalRule permits sending or receiving signals to or from a peer
// profile.
type SignalRule struct {
	Access string
	Peer   string
}

// PtraceRule permits tracing of or by a peer profile.
type PtraceRule struct {
	Access string
	Peer   string
}

// Profile is a named, path-attached rule set. The zero value is not a
// valid profile; Name must be non-empty.
type Profile struct {
	Name string
	// Attach is the glob pattern matching executables this profile
	// attaches to, or empty for profiles attached explicitly by name.
	Attach string
	Flags  ProfileFlags

	FileRules       []FileRule
	NetworkRules    []NetworkRule
	CapabilityRules []CapabilityRule
	MountRules      []MountRule
	DBusRules       []DBusRule
	SignalRules     []SignalRule
	PtraceRules     []PtraceRule

	// Children are nested profiles, switched to via cx exec rules. A
	// child is addressed by the qualified name "parent//child".
	Children []*Profile
}

// Validate returns an error if the profile or any of its children is
// malformed.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("cannot validate profile: empty name")
	}
	if strings.Contains(p.Name, "//") {
		return fmt.Errorf("cannot validate profile %q: name cannot contain '//'", p.Name)
	}
	if p.Attach != "" {
		if err := patterns.ValidateAttachPattern(p.Attach); err != nil {
			return fmt.Errorf("cannot validate profile %q: %v", p.Name, err)
		}
	}
	for _, rule := range p.FileRules {
		if rule.Path == "" || rule.Path[0] != '/' {
			return fmt.Errorf("cannot validate profile %q: file rule path must start with '/': %q", p.Name, rule.Path)
		}
	}
	for _, child := range p.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Child returns the direct child profile with the given (unqualified)
// name, or nil.
func (p *Profile) Child(name string) *Profile {
	for _, child := range p.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}
