// -*- Mode: Go; indent-tabs-mode: t -*-

package avc

import "time"

func MockTimeNow(f func() time.Time) (restore func()) {
	old := timeNow
	timeNow = f
	return func() {
		timeNow = old
	}
}
