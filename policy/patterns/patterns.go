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

// Package patterns implements the two pattern languages used by the
// policy engine: type patterns, which appear in type enforcement rules,
// and path patterns, which appear in profile file rules.
//
// Type patterns support a single trailing '*' wildcard, or the bare "*"
// which matches every type. Path patterns support three forms: an exact
// path, "prefix**" which matches the prefix and everything under it
// across path separators, and "prefix*" which matches the prefix plus
// at most one remaining path segment.
//
// Profile attach patterns are a third, richer language (full shell-style
// globs with alternations) and are delegated to the doublestar package.
package patterns

import (
	"fmt"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// MatchType reports whether the type pattern matches the concrete type.
//
// The pattern "*" matches every type. A pattern with a trailing '*'
// matches any type beginning with the pattern's prefix, so "httpd_*"
// matches both "httpd_t" and "httpd_exec_t". Any other pattern matches
// only the identical type.
func MatchType(pattern, typ string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(typ, pattern[:len(pattern)-1])
	}
	return pattern == typ
}

// MatchPath reports whether the path pattern matches the concrete path.
//
// A pattern with a trailing "**" matches its prefix and everything
// under it, crossing path separators: "/home/**" matches
// "/home/alice/.mozilla/prefs.js". A pattern with a single trailing '*'
// matches its prefix plus the remainder of the current path segment
// only: "/usr/lib*" matches "/usr/lib64" but not "/usr/lib/x86_64".
// Any other pattern matches only the identical path.
func MatchPath(pattern, path string) bool {
	if strings.HasSuffix(pattern, "**") {
		return strings.HasPrefix(path, pattern[:len(pattern)-2])
	}
	if strings.HasSuffix(pattern, "*") {
		prefix := pattern[:len(pattern)-1]
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		return !strings.Contains(path[len(prefix):], "/")
	}
	return pattern == path
}

// ValidateAttachPattern returns an error if the given profile attach
// pattern is not a well-formed glob.
func ValidateAttachPattern(pattern string) error {
	if pattern == "" || pattern[0] != '/' {
		return fmt.Errorf("invalid attach pattern: must start with '/': %q", pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid attach pattern: %q", pattern)
	}
	return nil
}

// MatchAttach reports whether the profile attach pattern matches the
// given executable path. Attach patterns use the full glob language, so
// matching is delegated to doublestar: '*' does not cross separators,
// "/**" matches any number of path components, and "{a,b}" alternations
// are supported.
func MatchAttach(pattern, path string) (bool, error) {
	matched, err := doublestar.Match(pattern, path)
	if err != nil {
		return false, fmt.Errorf("invalid attach pattern %q: %w", pattern, err)
	}
	return matched, nil
}
