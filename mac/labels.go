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
	"strings"

	"github.com/snapcore/cerberus/seclabel"
)

// labelTable maps subjects and objects to their security labels.
// Anything unmapped is unconfined. The table does no locking of its
// own; the engine serializes access.
type labelTable struct {
	processes map[int]seclabel.Label
	files     map[string]seclabel.Label
}

func newLabelTable() *labelTable {
	return &labelTable{
		processes: make(map[int]seclabel.Label),
		files:     make(map[string]seclabel.Label),
	}
}

func (t *labelTable) setProcess(pid int, label seclabel.Label) {
	t.processes[pid] = label
}

func (t *labelTable) removeProcess(pid int) {
	delete(t.processes, pid)
}

func (t *labelTable) process(pid int) seclabel.Label {
	if label, ok := t.processes[pid]; ok {
		return label
	}
	return seclabel.Unconfined()
}

func (t *labelTable) setFile(path string, label seclabel.Label) {
	t.files[path] = label
}

// file resolves the label of the object at path. An exact entry wins;
// failing that, entries keyed by a pattern ending in "/*" match as
// prefixes, the longest matching prefix winning, so "/var/www/html/*"
// beats "/var/www/*" for paths under both. Unmatched paths are
// unconfined.
func (t *labelTable) file(path string) seclabel.Label {
	if label, ok := t.files[path]; ok {
		return label
	}
	best := ""
	var bestLabel seclabel.Label
	for pattern, label := range t.files {
		if !strings.HasSuffix(pattern, "/*") {
			continue
		}
		prefix := pattern[:len(pattern)-1]
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if len(prefix) > len(best) {
			best = prefix
			bestLabel = label
		}
	}
	if best != "" {
		return bestLabel
	}
	return seclabel.Unconfined()
}
