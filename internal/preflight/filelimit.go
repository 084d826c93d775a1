package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the headroom serve keeps for client sockets.
const MinFileDescriptors = 1024

// requiredFileDescriptors adds the catalog pool to the socket headroom.
// Each SQLite connection in WAL mode holds the database, -wal and -shm files.
func requiredFileDescriptors(catalogConns int) uint64 {
	return MinFileDescriptors + 3*uint64(max(catalogConns, 1))
}

// CheckFileDescriptors compares the soft RLIMIT_NOFILE with what serve needs
// for catalogConns pooled catalog connections plus client sockets.
func (c *Checker) CheckFileDescriptors(catalogConns int) CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: false,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot read open file limit: %v", err)
		return result
	}

	need := requiredFileDescriptors(catalogConns)
	result.Message = fmt.Sprintf("limit %d, serve needs %d", rLimit.Cur, need)
	if uint64(rLimit.Cur) >= need {
		result.Status = StatusPass
		return result
	}

	result.Status = StatusWarn
	if uint64(rLimit.Max) >= need {
		result.Details = fmt.Sprintf("Run 'ulimit -n %d' before titlesearch serve", need)
	} else {
		result.Details = fmt.Sprintf("Hard limit is %d; lower database.max_open_conns or raise the hard limit", rLimit.Max)
	}
	return result
}
