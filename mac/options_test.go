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

package mac_test

import (
	"os"
	"path/filepath"
	"time"

	. "gopkg.in/check.v1"

	"github.com/snapcore/cerberus/mac"
)

type optionsSuite struct{}

var _ = Suite(&optionsSuite{})

func (s *optionsSuite) TestReadOptionsFileFull(c *C) {
	path := filepath.Join(c.MkDir(), "engine.conf")
	c.Assert(os.WriteFile(path, []byte(`[engine]
mode = permissive
fail = closed
audit-grants = true
cache-capacity = 128
cache-ttl = 30s
audit-rate = 10
`), 0644), IsNil)

	opts, err := mac.ReadOptionsFile(path)
	c.Assert(err, IsNil)
	c.Check(opts.Mode, Equals, mac.ModePermissive)
	c.Check(opts.FailClosed, Equals, true)
	c.Check(opts.AuditGrants, Equals, true)
	c.Check(opts.CacheCapacity, Equals, 128)
	c.Check(opts.CacheTTL, Equals, 30*time.Second)
	c.Check(opts.AuditRate, Equals, 10)
}

func (s *optionsSuite) TestReadOptionsStringDefaults(c *C) {
	opts, err := mac.ReadOptionsString("[engine]\n")
	c.Assert(err, IsNil)
	c.Check(opts.Mode, Equals, mac.ModeEnforcing)
	c.Check(opts.FailClosed, Equals, false)
	c.Check(opts.AuditGrants, Equals, false)
	c.Check(opts.CacheCapacity, Equals, 0)
	c.Check(opts.CacheTTL, Equals, time.Duration(0))
}

func (s *optionsSuite) TestReadOptionsStringPartial(c *C) {
	opts, err := mac.ReadOptionsString("[engine]\nmode = disabled\n")
	c.Assert(err, IsNil)
	c.Check(opts.Mode, Equals, mac.ModeDisabled)
	c.Check(opts.FailClosed, Equals, false)
}

func (s *optionsSuite) TestReadOptionsErrors(c *C) {
	_, err := mac.ReadOptionsString("[engine]\nmode = sideways\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: cannot parse mode "sideways": expected disabled, permissive or enforcing`)
	_, err = mac.ReadOptionsString("[engine]\nfail = maybe\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: fail must be "open" or "closed", not "maybe"`)
	_, err = mac.ReadOptionsString("[engine]\naudit-grants = sometimes\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: invalid audit-grants value "sometimes"`)
	_, err = mac.ReadOptionsString("[engine]\ncache-capacity = -1\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: invalid cache-capacity value "-1"`)
	_, err = mac.ReadOptionsString("[engine]\ncache-ttl = fast\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: invalid cache-ttl value "fast"`)
	_, err = mac.ReadOptionsString("[engine]\naudit-rate = many\n")
	c.Check(err, ErrorMatches, `cannot use options file .*: invalid audit-rate value "many"`)
}

func (s *optionsSuite) TestReadOptionsFileMissing(c *C) {
	_, err := mac.ReadOptionsFile("/no/such/file.conf")
	c.Check(err, ErrorMatches, `cannot read options file "/no/such/file.conf": .*`)
}
