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

package mac

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mvo5/goconfigparser"
)

// ReadOptionsFile reads engine options from an ini-style file:
//
//	[engine]
//	mode = enforcing
//	fail = closed
//	audit-grants = true
//	cache-capacity = 512
//	cache-ttl = 5s
//	audit-rate = 50
//
// Every option is optional; absent options keep their defaults, with
// mode defaulting to enforcing. Malformed values are an error rather
// than silently ignored, so a bad file cannot weaken enforcement
// unnoticed.
func ReadOptionsFile(path string) (*Options, error) {
	cfg := goconfigparser.New()
	if err := cfg.ReadFile(path); err != nil {
		return nil, fmt.Errorf("cannot read options file %q: %v", path, err)
	}
	return parseOptions(cfg, path)
}

// ReadOptionsString is like ReadOptionsFile but parses the given
// string. Mostly useful for tests and embedded defaults.
func ReadOptionsString(content string) (*Options, error) {
	cfg := goconfigparser.New()
	if err := cfg.ReadString(content); err != nil {
		return nil, fmt.Errorf("cannot parse options: %v", err)
	}
	return parseOptions(cfg, "<string>")
}

func parseOptions(cfg *goconfigparser.ConfigParser, path string) (*Options, error) {
	opts := &Options{Mode: ModeEnforcing}

	if s, err := cfg.Get("engine", "mode"); err == nil {
		mode, err := ParseMode(s)
		if err != nil {
			return nil, fmt.Errorf("cannot use options file %q: %v", path, err)
		}
		opts.Mode = mode
	}
	if s, err := cfg.Get("engine", "fail"); err == nil {
		switch s {
		case "open":
			opts.FailClosed = false
		case "closed":
			opts.FailClosed = true
		default:
			return nil, fmt.Errorf("cannot use options file %q: fail must be \"open\" or \"closed\", not %q", path, s)
		}
	}
	if s, err := cfg.Get("engine", "audit-grants"); err == nil {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("cannot use options file %q: invalid audit-grants value %q", path, s)
		}
		opts.AuditGrants = b
	}
	if s, err := cfg.Get("engine", "cache-capacity"); err == nil {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("cannot use options file %q: invalid cache-capacity value %q", path, s)
		}
		opts.CacheCapacity = n
	}
	if s, err := cfg.Get("engine", "cache-ttl"); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("cannot use options file %q: invalid cache-ttl value %q", path, s)
		}
		opts.CacheTTL = d
	}
	if s, err := cfg.Get("engine", "audit-rate"); err == nil {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("cannot use options file %q: invalid audit-rate value %q", path, s)
		}
		opts.AuditRate = n
	}
	return opts, nil
}
