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

// Package audit defines the boundary between the decision engine and
// the audit sink. The engine emits one record per audited decision;
// what the sink does with it (format, forward, persist) is the sink's
// business. The default sink writes to the log, throttled by a token
// bucket so that a denial storm cannot flood the log from a hot kernel
// path.
package audit

import (
	"sync"

	"github.com/juju/ratelimit"

	"github.com/snapcore/cerberus/logger"
)

// Record describes one audited access decision.
type Record struct {
	Allowed bool
	// Subject is the source type for type enforcement decisions, or
	// the profile name for profile decisions.
	Subject string
	// Object is the target type or the mediated path.
	Object      string
	Class       string
	Permissions string
	Reason      string
}

// An Auditor consumes audit records. Record must not block: it is
// called from the engine's check path.
type Auditor interface {
	Record(r Record)
}

type discard struct{}

func (discard) Record(Record) {}

// Discard is an auditor that drops every record.
var Discard Auditor = discard{}

// LogAuditor writes records to the log, rate limited. Records arriving
// faster than the configured rate are dropped and counted.
type LogAuditor struct {
	bucket *ratelimit.Bucket

	mu      sync.Mutex
	dropped uint64
}

// DefaultRate is the sustained number of audit records per second the
// default sink will log.
const DefaultRate = 50

// NewLogAuditor returns a log-backed auditor sustaining the given
// number of records per second, with a burst allowance of the same
// size. A non-positive rate selects DefaultRate.
func NewLogAuditor(perSecond int) *LogAuditor {
	if perSecond <= 0 {
		perSecond = DefaultRate
	}
	return &LogAuditor{
		bucket: ratelimit.NewBucketWithRate(float64(perSecond), int64(perSecond)),
	}
}

// Record implements Auditor.
func (a *LogAuditor) Record(r Record) {
	if a.bucket.TakeAvailable(1) == 0 {
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
		return
	}
	verdict := "DENIED"
	if r.Allowed {
		verdict = "GRANTED"
	}
	logger.Noticef("audit: %s { %s } subject=%s object=%s class=%s: %s",
		verdict, r.Permissions, r.Subject, r.Object, r.Class, r.Reason)
}

// Dropped returns the number of records dropped by rate limiting.
func (a *LogAuditor) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Recorder is an auditor for use in tests; it remembers every record.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// Record implements Auditor.
func (rec *Recorder) Record(r Record) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.records = append(rec.records, r)
}

// Records returns a copy of the recorded records.
func (rec *Recorder) Records() []Record {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Record(nil), rec.records...)
}
