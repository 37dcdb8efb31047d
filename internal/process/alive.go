package process

import (
	"bytes"
	"os"
	"runtime"
	"strconv"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Alive reports whether pid refers to a live, non-zombie process.
// This is an explicit probe; the supervisor itself never uses it to decide
// whether the server is running.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// On Linux, an exited but unreaped child is a zombie; treat that as not alive.
	if runtime.GOOS == "linux" && isZombieLinux(pid) {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}

// isZombieLinux returns true if /proc/<pid>/status reports a zombie state (Z) on Linux.
func isZombieLinux(pid int) bool {
	path := "/proc/" + strconv.Itoa(pid) + "/status"
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}
