package api

import (
	"net/http"
	"os"

	"github.com/shirou/gopsutil/process"
)

// health reports liveness plus a few process-level figures, enough
// for a probe or a quick operator check.
func (a *API) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status      string  `json:"status"`
		MemoryBytes uint64  `json:"memory_bytes"`
		CPUPercent  float64 `json:"cpu_percent"`
	}

	res := response{Status: "ok"}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			res.MemoryBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			res.CPUPercent = cpu
		}
	}

	a.respond(w, http.StatusOK, res)
}
