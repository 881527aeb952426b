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

// Package seclabel implements the user:role:type[:level] security context
// attached to subjects (processes) and objects (files, sockets, ...).
//
// Labels are plain value types and are copied freely. Policy decisions
// compare the type component of two labels, never whole labels, so two
// labels which differ only in user or role are equivalent as far as the
// type enforcement evaluator is concerned.
package seclabel

import (
	"fmt"
	"strings"
)

// Label is the security context of a subject or object.
type Label struct {
	// User is the SELinux-style user identity, e.g. "system_u".
	User string
	// Role is the RBAC role, e.g. "object_r".
	Role string
	// Type is the enforcement type, e.g. "httpd_t". Never empty in a
	// valid label.
	Type string
	// Level is the optional MLS/MCS level, e.g. "s0". Empty when the
	// label carries no level component.
	Level string
}

// Parse parses a label from its user:role:type[:level] form.
func Parse(s string) (Label, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return Label{}, fmt.Errorf("cannot parse security label %q: expected user:role:type[:level]", s)
	}
	label := Label{
		User: parts[0],
		Role: parts[1],
		Type: parts[2],
	}
	if len(parts) == 4 {
		label.Level = parts[3]
	}
	if label.User == "" || label.Role == "" || label.Type == "" {
		return Label{}, fmt.Errorf("cannot parse security label %q: empty component", s)
	}
	return label, nil
}

// String returns the label in its user:role:type[:level] form.
func (l Label) String() string {
	if l.Level != "" {
		return l.User + ":" + l.Role + ":" + l.Type + ":" + l.Level
	}
	return l.User + ":" + l.Role + ":" + l.Type
}

// MarshalText implements [encoding.TextMarshaler] so that labels can be
// used directly as JSON map keys and values.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *Label) UnmarshalText(b []byte) error {
	label, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = label
	return nil
}

// IsZero reports whether the label is the zero value, which is never a
// valid label.
func (l Label) IsZero() bool {
	return l.Type == ""
}

// WithType returns a copy of the label with the type component replaced.
// Used when a type transition rule rewrites the type of a freshly
// created subject or object.
func (l Label) WithType(typ string) Label {
	l.Type = typ
	return l
}

// Unconfined returns the label assigned to subjects and objects which
// have no explicit label. Policy typically leaves the unconfined type
// unrestricted, so unlabeled entities default to being allowed.
func Unconfined() Label {
	return Label{User: "unconfined_u", Role: "unconfined_r", Type: "unconfined_t"}
}

// System returns the label used for core kernel subjects and objects.
func System() Label {
	return Label{User: "system_u", Role: "system_r", Type: "kernel_t"}
}
