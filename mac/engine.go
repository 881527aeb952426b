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
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snapcore/cerberus/audit"
	"github.com/snapcore/cerberus/logger"
	"github.com/snapcore/cerberus/policy"
	"github.com/snapcore/cerberus/policy/apparmor"
	"github.com/snapcore/cerberus/policy/avc"
	"github.com/snapcore/cerberus/seclabel"
)

// Options configure a new engine. The zero value of each field selects
// a sensible default, except Mode, which defaults to whatever the zero
// Mode is (disabled); use ReadOptionsFile or set Mode explicitly.
type Options struct {
	Mode Mode
	// FailClosed denies access when no profile is installed for a
	// profile check. The default is to fail open: uninstrumented
	// subjects run unconfined.
	FailClosed bool
	// AuditGrants audits granted type enforcement decisions, not just
	// denials.
	AuditGrants bool
	// CacheCapacity and CacheTTL bound the decision cache.
	CacheCapacity int
	CacheTTL      time.Duration
	// AuditRate limits how many audit records per second the default
	// log sink emits.
	AuditRate int
	// Auditor receives audited decisions. Nil selects the rate-limited
	// log sink.
	Auditor audit.Auditor
}

// Engine is the MAC decision engine. It owns the rule store, the label
// tables, the decision cache, the mode and the statistics counters.
// Read-mostly check operations take a read lock; policy mutation takes
// the write lock. The cache carries its own short-lived lock so that
// the hot path can update it without write-locking the engine.
type Engine struct {
	mu       sync.RWMutex
	mode     Mode
	failOpen bool
	// auditGrants mirrors Options.AuditGrants.
	auditGrants bool

	rules    policy.RuleSet
	profiles map[string]*apparmor.Profile
	labels   *labelTable
	cache    *avc.Cache
	auditor  audit.Auditor

	checks      atomic.Uint64
	allowed     atomic.Uint64
	denied      atomic.Uint64
	audited     atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

var _ Checker = (*Engine)(nil)

// NewEngine returns an engine configured by the given options. A nil
// options value yields an enforcing, fail-open engine with default
// cache bounds and the rate-limited log audit sink.
func NewEngine(opts *Options) *Engine {
	if opts == nil {
		opts = &Options{Mode: ModeEnforcing}
	}
	auditor := opts.Auditor
	if auditor == nil {
		auditor = audit.NewLogAuditor(opts.AuditRate)
	}
	return &Engine{
		mode:        opts.Mode,
		failOpen:    !opts.FailClosed,
		auditGrants: opts.AuditGrants,
		profiles:    make(map[string]*apparmor.Profile),
		labels:      newLabelTable(),
		cache:       avc.New(opts.CacheCapacity, opts.CacheTTL),
		auditor:     auditor,
	}
}

// CheckAccess implements the type enforcement path of Checker.
//
// The subject label is resolved from the pid, the object label from the
// path; the cache is probed and the rule store evaluated on a miss; the
// raw decision is cached; and the engine mode is applied last, so the
// cache only ever holds raw decisions and stays valid across mode
// switches.
func (e *Engine) CheckAccess(pid int, path string, class policy.ObjectClass, requested policy.Permission) AccessResult {
	if e == nil {
		return AccessResult{Decision: policy.DecisionAllow, Reason: "security engine not initialized"}
	}
	e.checks.Add(1)

	e.mu.RLock()
	if e.mode == ModeDisabled {
		e.mu.RUnlock()
		e.allowed.Add(1)
		return AccessResult{Decision: policy.DecisionAllow, Reason: "mandatory access control disabled"}
	}
	mode := e.mode
	source := e.labels.process(pid)
	target := e.labels.file(path)

	var raw policy.TEResult
	if decision, ok := e.cache.Check(source.Type, target.Type, class, requested); ok {
		e.cacheHits.Add(1)
		raw = policy.TEResult{Decision: decision}
		if decision == policy.DecisionAllow {
			raw.Audit = e.auditGrants
			raw.Reason = fmt.Sprintf("granted { %s } for %s -> %s:%s (cached)", requested, source.Type, target.Type, class)
		} else {
			// The cached entry does not remember dontaudit coverage,
			// so cached denials are always audited.
			raw.Audit = true
			raw.Reason = fmt.Sprintf("denied { %s } for %s -> %s:%s (cached)", requested, source.Type, target.Type, class)
		}
	} else {
		e.cacheMisses.Add(1)
		raw = e.rules.EvaluateAccess(source.Type, target.Type, class, requested, e.auditGrants)
		e.cache.Update(source.Type, target.Type, class, requested, raw.Decision)
	}
	e.mu.RUnlock()

	return e.finish(raw.Decision, raw.Audit, raw.Reason, mode,
		source.Type, target.Type, class.String(), requested.String())
}

// CheckAAAccess implements the profile path of Checker. Child profiles
// are addressed by their qualified "parent//child" name.
func (e *Engine) CheckAAAccess(profileName, path string, requested apparmor.FilePermission) AccessResult {
	if e == nil {
		return AccessResult{Decision: policy.DecisionAllow, Reason: "security engine not initialized"}
	}
	e.checks.Add(1)

	e.mu.RLock()
	if e.mode == ModeDisabled {
		e.mu.RUnlock()
		e.allowed.Add(1)
		return AccessResult{Decision: policy.DecisionAllow, Reason: "mandatory access control disabled"}
	}
	mode := e.mode
	profile := e.profiles[profileName]

	var raw apparmor.Result
	if profile == nil {
		if e.failOpen {
			raw = apparmor.Result{
				Decision: policy.DecisionAllow,
				Reason:   fmt.Sprintf("no profile %q installed, subject unconfined", profileName),
			}
		} else {
			raw = apparmor.Result{
				Decision: policy.DecisionDeny,
				Audit:    true,
				Reason:   fmt.Sprintf("no profile %q installed", profileName),
			}
		}
	} else {
		raw = profile.EvaluateFile(path, requested, false)
	}
	e.mu.RUnlock()

	return e.finish(raw.Decision, raw.Audit, raw.Reason, mode,
		profileName, path, policy.ClassFile.String(), requested.String())
}

// finish applies mode policy to a raw decision, updates statistics and
// emits the audit record.
func (e *Engine) finish(decision policy.Decision, auditFlag bool, reason string, mode Mode, subject, object, class, perms string) AccessResult {
	res := AccessResult{Decision: decision, Audit: auditFlag, Reason: reason}
	if decision == policy.DecisionDeny {
		// Permissive conversions still count as denials internally.
		e.denied.Add(1)
		if mode == ModePermissive {
			res.Decision = policy.DecisionAllow
			res.Audit = true
			res.Reason = reason + " (permissive)"
		}
	} else {
		e.allowed.Add(1)
	}
	if res.Audit {
		e.audited.Add(1)
		e.auditor.Record(audit.Record{
			Allowed:     res.Decision == policy.DecisionAllow,
			Subject:     subject,
			Object:      object,
			Class:       class,
			Permissions: perms,
			Reason:      res.Reason,
		})
	}
	return res
}

// AddTeRule appends one type enforcement rule and invalidates the
// decision cache, so the cache never outlives the rule set that
// produced it.
func (e *Engine) AddTeRule(rule *policy.TeRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.rules.TeRules = append(e.rules.TeRules, rule)
	e.mu.Unlock()
	e.cache.Invalidate()
	logger.Debugf("installed rule %s", rule)
	return nil
}

// AddTypeTransition registers a type transition and invalidates the
// decision cache.
func (e *Engine) AddTypeTransition(trans *policy.TypeTransition) error {
	if trans.Source == "" || trans.Target == "" || trans.NewType == "" {
		return fmt.Errorf("cannot add type transition: empty type")
	}
	if !trans.Class.IsValid() {
		return fmt.Errorf("cannot add type transition: unknown object class %s", trans.Class)
	}
	e.mu.Lock()
	e.rules.TypeTransitions = append(e.rules.TypeTransitions, trans)
	e.mu.Unlock()
	e.cache.Invalidate()
	return nil
}

// AddRoleTransition registers a role transition and invalidates the
// decision cache.
func (e *Engine) AddRoleTransition(trans *policy.RoleTransition) error {
	if trans.Role == "" || trans.Type == "" || trans.NewRole == "" {
		return fmt.Errorf("cannot add role transition: empty component")
	}
	e.mu.Lock()
	e.rules.RoleTransitions = append(e.rules.RoleTransitions, trans)
	e.mu.Unlock()
	e.cache.Invalidate()
	return nil
}

// AddProfile installs or overwrites the named profile, registering its
// children (recursively) under their qualified "parent//child" names,
// and invalidates the decision cache.
func (e *Engine) AddProfile(profile *apparmor.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	// Drop qualified children of any previous version of this profile.
	for name := range e.profiles {
		if strings.HasPrefix(name, profile.Name+"//") {
			delete(e.profiles, name)
		}
	}
	e.registerProfile(profile.Name, profile)
	e.mu.Unlock()
	e.cache.Invalidate()
	logger.Debugf("installed profile %q", profile.Name)
	return nil
}

func (e *Engine) registerProfile(qualified string, profile *apparmor.Profile) {
	e.profiles[qualified] = profile
	for _, child := range profile.Children {
		e.registerProfile(qualified+"//"+child.Name, child)
	}
}

// SetProcessLabel assigns or updates the subject label for a process.
// Called by the process creation and exec hooks.
func (e *Engine) SetProcessLabel(pid int, label seclabel.Label) error {
	if label.IsZero() {
		return fmt.Errorf("cannot set process label: invalid label")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.labels.setProcess(pid, label)
	return nil
}

// RemoveProcessLabel drops the label of an exited process; subsequent
// lookups for the pid resolve to unconfined.
func (e *Engine) RemoveProcessLabel(pid int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.labels.removeProcess(pid)
}

// GetProcessLabel returns the label of the given process, or the
// unconfined label if none was assigned.
func (e *Engine) GetProcessLabel(pid int) seclabel.Label {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.labels.process(pid)
}

// SetFileLabel assigns an object label to a path, or to a subtree when
// the path ends in "/*".
func (e *Engine) SetFileLabel(path string, label seclabel.Label) error {
	if label.IsZero() {
		return fmt.Errorf("cannot set file label: invalid label")
	}
	if path == "" || path[0] != '/' {
		return fmt.Errorf("cannot set file label: path must start with '/': %q", path)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.labels.setFile(path, label)
	return nil
}

// GetFileLabel resolves the label of the object at path: an exact entry
// first, then the longest matching "/*" prefix pattern, then
// unconfined.
func (e *Engine) GetFileLabel(path string) seclabel.Label {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.labels.file(path)
}

// ComputeTransition returns the label a new entity created by pid at
// path should receive, or false if no transition rule applies. For
// process transitions the subject's label is carried over with the new
// type; created objects get the subject's user with the object role.
func (e *Engine) ComputeTransition(pid int, path string, class policy.ObjectClass) (seclabel.Label, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	source := e.labels.process(pid)
	target := e.labels.file(path)
	newType, ok := e.rules.ComputeTypeTransition(source.Type, target.Type, class, filepath.Base(path))
	if !ok {
		return seclabel.Label{}, false
	}
	if class == policy.ClassProcess {
		return source.WithType(newType), true
	}
	return seclabel.Label{User: source.User, Role: "object_r", Type: newType}, true
}

// ComputeRoleTransition returns the role a subject with the given role
// should switch to when executing an entrypoint of the given type, or
// false if no role transition applies. Consumed by the process manager
// at exec time.
func (e *Engine) ComputeRoleTransition(role, targetType string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules.ComputeRoleTransition(role, targetType)
}

// ProfileForExec returns the name of the profile whose attach pattern
// matches the given executable path, or false if none does. Profiles
// are tried in name order so the result is deterministic when several
// patterns match.
func (e *Engine) ProfileForExec(exe string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.profiles))
	for name := range e.profiles {
		if strings.Contains(name, "//") {
			// Children attach via cx exec rules, not by path.
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if e.profiles[name].AttachesTo(exe) {
			return name, true
		}
	}
	return "", false
}

// SetMode switches the engine between disabled, permissive and
// enforcing. The switch has no side effect on rules or cache contents:
// cached entries hold raw decisions and remain valid.
func (e *Engine) SetMode(mode Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != mode {
		logger.Noticef("mac mode changed from %s to %s", e.mode, mode)
	}
	e.mode = mode
}

// Mode returns the current engine mode.
func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// CacheLen returns the number of entries in the decision cache.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	teRules := len(e.rules.TeRules)
	profiles := len(e.profiles)
	e.mu.RUnlock()
	return Stats{
		Checks:       e.checks.Load(),
		Allowed:      e.allowed.Load(),
		Denied:       e.denied.Load(),
		Audited:      e.audited.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		TeRules:      teRules,
		Profiles:     profiles,
		CacheEntries: e.cache.Len(),
	}
}
