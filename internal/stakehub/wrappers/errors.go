// Package wrappers provides small utilities mirrored from the
// teacher's github.com/Juneo-io/juneogo/utils/wrappers package. Only
// call sites using wrappers.Errs were retrieved (e.g.
// vms/platformvm/metrics/metrics.go), not the package body itself, so
// Errs is rebuilt here from its observed usage: collect the first
// non-nil error across a batch of fallible calls, ignoring the rest.
package wrappers

// Errs accumulates the first non-nil error passed to Add; subsequent
// errors are dropped once Err is set, matching the teacher's
// fail-fast-but-keep-going registration pattern (register every
// collector, report only the first failure).
type Errs struct {
	Err error
}

// Add records the first non-nil error among errs.
func (e *Errs) Add(errs ...error) {
	if e.Err != nil {
		return
	}
	for _, err := range errs {
		if err != nil {
			e.Err = err
			return
		}
	}
}
