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
	"strings"
)

// Permission is a set of access vector permissions, one bit per
// permission. The set is capped at 64 permissions; vocabularies larger
// than that are not supported.
type Permission uint64

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermExecute
	PermAppend
	PermCreate
	PermUnlink
	PermOpen
	PermClose
	PermGetattr
	PermSetattr
	PermLock
	PermIoctl
	PermRename
	PermLink
	PermMap
	PermMount
	PermRemount
	PermUnmount
	PermSearch
	PermAddName
	PermRemoveName
	PermReparent
	PermRmdir
	PermBind
	PermConnect
	PermListen
	PermAccept
	PermSendMsg
	PermRecvMsg
	PermFork
	PermSignal
	PermSigkill
	PermSigstop
	PermPtrace
	PermTransition
	PermSetexec
	PermEntrypoint
	PermShare
	PermGetsched
	PermSetsched
	PermCapUse
)

var permissionNames = []struct {
	mask Permission
	name string
}{
	{PermRead, "read"},
	{PermWrite, "write"},
	{PermExecute, "execute"},
	{PermAppend, "append"},
	{PermCreate, "create"},
	{PermUnlink, "unlink"},
	{PermOpen, "open"},
	{PermClose, "close"},
	{PermGetattr, "getattr"},
	{PermSetattr, "setattr"},
	{PermLock, "lock"},
	{PermIoctl, "ioctl"},
	{PermRename, "rename"},
	{PermLink, "link"},
	{PermMap, "map"},
	{PermMount, "mount"},
	{PermRemount, "remount"},
	{PermUnmount, "unmount"},
	{PermSearch, "search"},
	{PermAddName, "add_name"},
	{PermRemoveName, "remove_name"},
	{PermReparent, "reparent"},
	{PermRmdir, "rmdir"},
	{PermBind, "bind"},
	{PermConnect, "connect"},
	{PermListen, "listen"},
	{PermAccept, "accept"},
	{PermSendMsg, "sendmsg"},
	{PermRecvMsg, "recvmsg"},
	{PermFork, "fork"},
	{PermSignal, "signal"},
	{PermSigkill, "sigkill"},
	{PermSigstop, "sigstop"},
	{PermPtrace, "ptrace"},
	{PermTransition, "transition"},
	{PermSetexec, "setexec"},
	{PermEntrypoint, "entrypoint"},
	{PermShare, "share"},
	{PermGetsched, "getsched"},
	{PermSetsched, "setsched"},
	{PermCapUse, "cap_use"},
}

// Convenience unions for common access patterns.
const (
	FileRead    = PermOpen | PermRead | PermGetattr | PermLock | PermIoctl
	FileWrite   = PermOpen | PermWrite | PermAppend | PermSetattr | PermLock
	FileExecute = PermOpen | PermRead | PermExecute | PermMap | PermGetattr
	DirSearch   = PermOpen | PermSearch | PermGetattr
	DirRead     = PermOpen | PermRead | PermSearch | PermGetattr | PermLock | PermIoctl
	DirWrite    = DirRead | PermWrite | PermAddName | PermRemoveName
)

// Union returns the permissions in either set.
func (p Permission) Union(other Permission) Permission {
	return p | other
}

// Intersect returns the permissions in both sets.
func (p Permission) Intersect(other Permission) Permission {
	return p & other
}

// Difference returns the permissions in p which are not in other.
func (p Permission) Difference(other Permission) Permission {
	return p &^ other
}

// Contains reports whether every permission in other is also in p.
func (p Permission) Contains(other Permission) bool {
	return p&other == other
}

// IsEmpty reports whether no permission bit is set.
func (p Permission) IsEmpty() bool {
	return p == 0
}

// IsValid reports whether only defined permission bits are set.
func (p Permission) IsValid() bool {
	var defined Permission
	for _, perm := range permissionNames {
		defined |= perm.mask
	}
	return p&^defined == 0
}

// String returns the named permissions joined by '|' in bit order, e.g.
// "read|write". Undefined bits are rendered in hex. The empty set is
// rendered as "none".
func (p Permission) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, perm := range permissionNames {
		if p&perm.mask != 0 {
			names = append(names, perm.name)
			p &^= perm.mask
		}
	}
	if p != 0 {
		names = append(names, fmt.Sprintf("%#x", uint64(p)))
	}
	return strings.Join(names, "|")
}
