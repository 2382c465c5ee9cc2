// Package sysmem samples process and system memory for the adaptive
// pagination estimator.
package sysmem

import (
	"runtime"
	"syscall"

	"github.com/pkg/errors"
)

type Meter struct{}

func NewMeter() *Meter {
	return &Meter{}
}

// ProcessBytes returns the memory actively in use by the process, in bytes:
// live heap spans plus goroutine stacks. Virtual address space reserved but
// not committed is excluded, which keeps the reading stable enough to
// difference across a page release.
func (m *Meter) ProcessBytes() (int64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapInuse + ms.StackInuse), nil
}

// TotalSystemBytes returns the machine's total physical memory.
func (m *Meter) TotalSystemBytes() (int64, error) {
	var si syscall.Sysinfo_t
	if err := syscall.Sysinfo(&si); err != nil {
		return 0, errors.Wrap(err, "sysmem: sysinfo")
	}
	return int64(si.Totalram) * int64(si.Unit), nil
}

// ForceGC runs a full collection. The estimator differences memory readings
// around releasing a page of documents; without a forced collection the
// "after" reading would still include garbage awaiting an unpredictable
// collector pass and the calibration would be meaningless.
func (m *Meter) ForceGC() {
	runtime.GC()
}
