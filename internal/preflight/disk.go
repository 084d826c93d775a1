package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// MinDiskSpaceBytes is the floor for free space next to the catalog (100MB).
const MinDiskSpaceBytes = 100 * 1024 * 1024

// requiredDiskSpace is what the catalog filesystem must have free. SQLite
// may need a full copy of the database for a VACUUM or a WAL checkpoint.
func requiredDiskSpace(catalogSize uint64) uint64 {
	return max(MinDiskSpaceBytes, 2*catalogSize)
}

// CheckDiskSpace checks that the filesystem holding the catalog can absorb
// catalog growth. A missing catalog counts as empty.
func (c *Checker) CheckDiskSpace(catalogPath string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	var catalogSize uint64
	if info, err := os.Stat(catalogPath); err == nil {
		catalogSize = uint64(info.Size())
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(filepath.Dir(catalogPath), &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat catalog directory: %v", err)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	need := requiredDiskSpace(catalogSize)
	result.Message = fmt.Sprintf("%s free beside a %s catalog (need %s)",
		formatBytes(free), formatBytes(catalogSize), formatBytes(need))
	if free < need {
		result.Status = StatusFail
		result.Details = "Free space on the catalog volume or move database.path"
		return result
	}
	result.Status = StatusPass
	return result
}

func formatBytes(n uint64) string {
	units := []string{"KB", "MB", "GB", "TB"}
	if n < 1024 {
		return fmt.Sprintf("%d bytes", n)
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
