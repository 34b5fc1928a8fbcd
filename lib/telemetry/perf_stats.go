package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("civiroster.perf")

var (
	cpuGauge, _       = meter.Float64Gauge("process.cpu_percent")
	heapGauge, _      = meter.Int64Gauge("process.heap_alloc_mb")
	liveGauge, _      = meter.Int64Gauge("process.live_objects")
	goroutineGauge, _ = meter.Int64Gauge("process.goroutines")
)

type perfSample struct {
	heapAllocMB int64
	liveObjects int64
	goroutines  int64
}

func samplePerf() perfSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return perfSample{
		heapAllocMB: int64(memStats.Alloc / 1_000_000),
		liveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		goroutines:  int64(runtime.NumGoroutine()),
	}
}

// InstrumentPerfStats records process runtime gauges every 30 seconds
// until ctx is canceled.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample := samplePerf()
				heapGauge.Record(ctx, sample.heapAllocMB)
				liveGauge.Record(ctx, sample.liveObjects)
				goroutineGauge.Record(ctx, sample.goroutines)

				usage, err := cpu.Percent(time.Minute, false)
				if err != nil {
					slog.Warn("failed to read cpu usage", "err", err)
				} else if len(usage) > 0 {
					cpuGauge.Record(ctx, usage[0])
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
