package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-relay/contract"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically reports the relay's vital signs:
// process memory, CPU, OS status and the number of live sessions.
type TelemetryWorker struct {
	log         *slog.Logger
	interval    time.Duration
	connections contract.IConnectionRegistry
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	connections contract.IConnectionRegistry) *TelemetryWorker {
	return &TelemetryWorker{
		log:         log,
		interval:    interval,
		connections: connections,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting relay telemetry worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			w.log.Info("Relay status",
				"pid", os.Getpid(),
				"pid_status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"connected_users", len(w.connections.AllIdentities()),
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
