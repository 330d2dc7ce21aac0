package preflight

import (
	"fmt"
	"syscall"

	"github.com/Aman-CERP/notesync/internal/ui"
)

// MinDiskSpaceBytes is the minimum required free disk space (50MB).
const MinDiskSpaceBytes = 50 * 1024 * 1024

// CheckDiskSpace checks the free space on the file system holding path.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(existingParent(path), &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum: 50 MB)", ui.FormatBytes(available))
	if available < MinDiskSpaceBytes {
		result.Status = StatusFail
		return result
	}

	result.Status = StatusPass
	return result
}
