package stats

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

var (
	// ScansTotal counts the scans by kind (wallet, notes, address) and
	// outcome.
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shieldpay",
		Name:      "scans_total",
		Help:      "Number of balance scans by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ScanBatchFailures counts the failed batches by sub-scan.
	ScanBatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shieldpay",
		Name:      "scan_batch_failures_total",
		Help:      "Number of scan batches that failed.",
	}, []string{"subscan"})

	PlanExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shieldpay",
		Name:      "plan_executions_total",
		Help:      "Number of executed plans by outcome.",
	}, []string{"outcome"})

	CommandExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shieldpay",
		Name:      "command_executions_total",
		Help:      "Number of executed commands by name and outcome.",
	}, []string{"command", "outcome"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shieldpay",
		Name:      "command_duration_seconds",
		Help:      "Duration of command executions.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		ScansTotal, ScanBatchFailures, PlanExecutions,
		CommandExecutions, CommandDuration,
	)
}

// Outcome returns the label value for the given result.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveCommand records the execution of a command.
func ObserveCommand(name string, start time.Time, err error) {
	CommandExecutions.WithLabelValues(name, Outcome(err == nil)).Inc()
	CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// EnableMemoryStatistics periodically logs the memory usage of the process.
// Metrics are dumped to filename when the context is done.
func EnableMemoryStatistics(
	ctx context.Context, interval time.Duration, filename string,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				if err := DumpPrometheusDefaults(filename); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
}

// toGigabytes returns given memory in bytes to gigabytes.
func toGigabytes(bytes uint64) float64 {
	return float64(bytes) / GIGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Debugf(
		"Total allocated: %.3fGB, Heap allocated: %.3fGB, "+
			"Allocated objects count: %v, Freed objects count: %v",
		toGigabytes(memStats.TotalAlloc),
		toGigabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

// DumpPrometheusDefaults appends the metrics of the default gatherer to the
// given file.
func DumpPrometheusDefaults(filename string) error {
	file, err := os.OpenFile(
		filename,
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	log.Debugf("Num of go routines: %v", runtime.NumGoroutine())
}
