package process

import (
	"fmt"
	"strings"

	gops "github.com/shirou/gopsutil/v4/process"
)

// ResolvePID finds the process whose executable name matches name,
// case-insensitively and with or without a trailing ".exe". When
// several match, the lowest PID wins for determinism.
func ResolvePID(name string) (ProcessID, error) {
	if name == "" {
		return 0, fmt.Errorf("resolve pid: empty name: %w", ErrProcessNotFound)
	}

	procs, err := gops.Processes()
	if err != nil {
		return 0, fmt.Errorf("resolve pid: list processes: %w", err)
	}

	want := normalizeProcName(name)
	best := ProcessID(0)
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if normalizeProcName(pname) != want {
			continue
		}
		pid := ProcessID(p.Pid)
		if best == 0 || pid < best {
			best = pid
		}
	}

	if best == 0 {
		return 0, fmt.Errorf("resolve pid: %q: %w", name, ErrProcessNotFound)
	}
	return best, nil
}

func normalizeProcName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}
