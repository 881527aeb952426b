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

// Package avc implements the access vector cache: a bounded table of
// recent type enforcement decisions with time-based freshness, so that
// repeated checks for the same (source type, target type, class) triple
// skip rule evaluation.
//
// The cache stores raw rule evaluation outcomes, never mode-adjusted
// ones, so entries stay valid across engine mode switches. Eviction at
// capacity is FIFO on insertion order, not LRU; that matches the
// documented behavior of the engine and is deliberately not upgraded.
package avc

import (
	"sync"
	"time"

	"github.com/snapcore/cerberus/policy"
)

// Entry is one cached decision.
type Entry struct {
	SourceType  string
	TargetType  string
	Class       policy.ObjectClass
	Permissions policy.Permission
	Decision    policy.Decision
	Timestamp   time.Time
}

const (
	// DefaultCapacity bounds the cache when no capacity is configured.
	DefaultCapacity = 512
	// DefaultTTL is the freshness window when no TTL is configured.
	DefaultTTL = 5 * time.Second
)

var timeNow = time.Now

// Cache is a bounded decision cache. It has its own lock so that the
// engine can update it while holding only its read lock on the hot
// path.
type Cache struct {
	mu       sync.Mutex
	entries  []*Entry // insertion order, oldest first
	capacity int
	ttl      time.Duration
}

// New returns an empty cache with the given capacity and TTL. Zero or
// negative values select the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
	}
}

// Check returns the cached decision for the given request, if a fresh
// entry answers it.
//
// A cached Allow for a superset of the requested permissions answers
// the request: if the larger set was allowed, so is any subset. The
// same shortcut is unsound for Deny, since a denied superset may
// contain an allowed subset, so a cached Deny only answers a request
// for exactly the permission set that was evaluated.
func (c *Cache) Check(sourceType, targetType string, class policy.ObjectClass, requested policy.Permission) (policy.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := timeNow()
	for _, e := range c.entries {
		if e.SourceType != sourceType || e.TargetType != targetType || e.Class != class {
			continue
		}
		if now.Sub(e.Timestamp) >= c.ttl {
			continue
		}
		switch e.Decision {
		case policy.DecisionAllow:
			if e.Permissions.Contains(requested) {
				return policy.DecisionAllow, true
			}
		case policy.DecisionDeny:
			if e.Permissions == requested {
				return policy.DecisionDeny, true
			}
		}
	}
	return policy.DecisionDeny, false
}

// Update records a decision for the given request, replacing any
// existing entry for the same (source, target, class) key. When the
// cache would exceed its capacity the oldest inserted entry is evicted.
func (c *Cache) Update(sourceType, targetType string, class policy.ObjectClass, permissions policy.Permission, decision policy.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.SourceType == sourceType && e.TargetType == targetType && e.Class == class {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	if len(c.entries) >= c.capacity {
		c.entries = c.entries[1:]
	}
	c.entries = append(c.entries, &Entry{
		SourceType:  sourceType,
		TargetType:  targetType,
		Class:       class,
		Permissions: permissions,
		Decision:    decision,
		Timestamp:   timeNow(),
	})
}

// Invalidate discards every entry. The engine calls this whenever the
// rule store changes, so the cache never outlives the rule set that
// produced it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
