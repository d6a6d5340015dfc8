package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "exitprobe"
)

var (
	Debug                bool = true
	validResults              = []types.TestStatus{types.TestStatusPassed, types.TestStatusWarning, types.TestStatusFailed, types.TestStatusAborted}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of harness errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of verified tests",
	}, []string{
		"run_id",
		"suite",
		"test",
		"termination",
		"result",
	})

	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Wall clock duration of isolated test executions",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
	}, []string{
		"suite",
	})

	suitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_total",
		Help:      "Count of aggregated suites",
	}, []string{
		"run_id",
		"suite",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Number of tests per status in a run",
	}, []string{
		"run_id",
		"bucket",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a run",
	}, []string{
		"run_id",
	})

	capturesTruncated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "captures_truncated_total",
		Help:      "Count of captured streams that overflowed their buffer",
	}, []string{
		"stream",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTest(runID string, suite string, test string, outcome types.Outcome, result types.TestStatus) {
	if !isValidResult(result) {
		log.Error("RecordTest - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"run_id", runID,
			"suite", suite,
			"test", test,
			"termination", outcome.Termination,
			"result", result)
	}
	testsTotal.WithLabelValues(runID, suite, test, string(outcome.Termination), string(result)).Inc()
	testDuration.WithLabelValues(suite).Observe(outcome.Duration.Seconds())
	if outcome.StdoutTruncated {
		capturesTruncated.WithLabelValues("stdout").Inc()
	}
	if outcome.StderrTruncated {
		capturesTruncated.WithLabelValues("stderr").Inc()
	}
}

func RecordSuite(runID string, suite string, result types.TestStatus) {
	if !isValidResult(result) {
		log.Error("RecordSuite - invalid result", "result", result)
		return
	}
	suitesTotal.WithLabelValues(runID, suite, string(result)).Inc()
}

func RecordRun(runID string, stats types.RunStats, duration time.Duration) {
	for bucket, s := range map[string]types.Stats{
		"tests":        stats.Tests,
		"suites":       stats.Suites,
		"requirements": stats.Requirements,
	} {
		runResults.WithLabelValues(runID, bucket, string(types.TestStatusPassed)).Set(float64(s.Passed))
		runResults.WithLabelValues(runID, bucket, string(types.TestStatusWarning)).Set(float64(s.Warnings))
		runResults.WithLabelValues(runID, bucket, string(types.TestStatusFailed)).Set(float64(s.Failed))
		runResults.WithLabelValues(runID, bucket, string(types.TestStatusAborted)).Set(float64(s.Aborted))
	}
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
