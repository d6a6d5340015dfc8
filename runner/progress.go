package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartRun(runID string, totalTests int)
	StartSuite(suiteName string, totalTests int)
	StartTest(testName string)
	UpdateTest(testName string, status types.TestStatus)
	CompleteSuite(suiteName string, status types.TestStatus)
	CompleteRun(runID string)
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartRun(runID string, totalTests int)                   {}
func (n *noOpProgressIndicator) StartSuite(suiteName string, totalTests int)             {}
func (n *noOpProgressIndicator) StartTest(testName string)                               {}
func (n *noOpProgressIndicator) UpdateTest(testName string, status types.TestStatus)     {}
func (n *noOpProgressIndicator) CompleteSuite(suiteName string, status types.TestStatus) {}
func (n *noOpProgressIndicator) CompleteRun(runID string)                                {}

// consoleProgressIndicator logs progress and periodically reports the
// longest running children
type consoleProgressIndicator struct {
	logger   log.Logger
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	mu       sync.RWMutex

	runID          string
	completedTests int
	totalTests     int
	runStartTime   time.Time
	suiteStartTime map[string]time.Time

	runningTests map[string]time.Time // test name -> start time
}

// NewConsoleProgressIndicator creates a progress indicator that shows updates in the console
func NewConsoleProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval <= 0 {
		updateInterval = DefaultProgressInterval
	}
	return &consoleProgressIndicator{
		logger:         logger,
		interval:       updateInterval,
		suiteStartTime: make(map[string]time.Time),
		runningTests:   make(map[string]time.Time),
	}
}

func (c *consoleProgressIndicator) StartRun(runID string, totalTests int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runID = runID
	c.totalTests = totalTests
	c.completedTests = 0
	c.runStartTime = time.Now()
	c.runningTests = make(map[string]time.Time)
	if c.ticker == nil {
		c.ticker = time.NewTicker(c.interval)
		c.stopCh = make(chan struct{})
		go c.progressReporter(c.ticker, c.stopCh)
	}

	c.logger.Info("Starting run", "runID", runID, "totalTests", totalTests)
}

func (c *consoleProgressIndicator) StartSuite(suiteName string, totalTests int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.suiteStartTime[suiteName] = time.Now()
	c.logger.Info("Starting suite", "suite", suiteName, "suiteTests", totalTests)
}

// StartTest tracks when a test starts running
func (c *consoleProgressIndicator) StartTest(testName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningTests[testName] = time.Now()
	c.logger.Debug("Test started", "test", testName, "runningTests", len(c.runningTests))
}

func (c *consoleProgressIndicator) UpdateTest(testName string, status types.TestStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.runningTests, testName)
	c.completedTests++
	c.logger.Debug("Test completed", "test", testName, "status", status, "completed", c.completedTests, "total", c.totalTests)
}

func (c *consoleProgressIndicator) CompleteSuite(suiteName string, status types.TestStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var duration time.Duration
	if start, ok := c.suiteStartTime[suiteName]; ok {
		duration = time.Since(start).Truncate(time.Millisecond)
		delete(c.suiteStartTime, suiteName)
	}
	c.logger.Info("Completed suite", "suite", suiteName, "status", status, "duration", duration)
}

func (c *consoleProgressIndicator) CompleteRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		close(c.stopCh)
		c.ticker = nil
	}
	duration := time.Since(c.runStartTime).Truncate(time.Millisecond)
	c.logger.Info("Completed run", "runID", runID, "totalTests", c.totalTests, "completed", c.completedTests, "duration", duration)
	c.runningTests = make(map[string]time.Time)
}

func (c *consoleProgressIndicator) progressReporter(ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-ticker.C:
			c.reportProgress()
		case <-stopCh:
			return
		}
	}
}

func (c *consoleProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pct := 0.0
	if c.totalTests > 0 {
		pct = float64(c.completedTests) * 100.0 / float64(c.totalTests)
	}
	c.logger.Info("Progress update",
		"runID", c.runID,
		"verified", fmt.Sprintf("%d/%d (%.1f%%)", c.completedTests, c.totalTests, pct),
		"elapsed", time.Since(c.runStartTime).Truncate(time.Second),
		"liveChildren", len(c.runningTests),
		"longestRunning", formatRunningTests(c.runningTests, 3),
	)
}

// formatRunningTests lists the longest running tests first
func formatRunningTests(runningTests map[string]time.Time, maxShow int) string {
	if len(runningTests) == 0 {
		return ""
	}

	names := make([]string, 0, len(runningTests))
	for name := range runningTests {
		names = append(names, name)
	}
	// oldest start first, ties by name
	sort.Slice(names, func(i, j int) bool {
		si, sj := runningTests[names[i]], runningTests[names[j]]
		if si.Equal(sj) {
			return names[i] < names[j]
		}
		return si.Before(sj)
	})

	now := time.Now()
	shown := make([]string, 0, maxShow+1)
	for _, name := range names[:min(maxShow, len(names))] {
		shown = append(shown, fmt.Sprintf("%s (%v)", name, now.Sub(runningTests[name]).Truncate(time.Second)))
	}
	if extra := len(names) - maxShow; extra > 0 {
		shown = append(shown, fmt.Sprintf("+%d more", extra))
	}
	return strings.Join(shown, ", ")
}
