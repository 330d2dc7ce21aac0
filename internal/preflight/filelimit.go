package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the open file limit below which watch mode may
// run out of descriptors on large note trees.
const MinFileDescriptors = 1024

// CheckFileDescriptors checks the open file limit. A low limit only
// affects watch mode, so the check is not required.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: false,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 10240' before 'notesync watch'"
		return result
	}

	result.Status = StatusPass
	return result
}
