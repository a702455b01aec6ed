package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"imushare/pkg/client"
)

const (
	defaultServerURL        = "http://127.0.0.1:3000"
	defaultFileSize         = 1024
	defaultMultiPassCount   = 10
	defaultParallelInfo     = 10
	defaultFullPassParallel = 10
	defaultHTTPTimeout      = 2 * time.Minute
	defaultRetryMax         = 3

	separatorLineLength  = 80
	microsecondsToMillis = 1000.0
)

type config struct {
	serverURL          string
	fileSize           int
	multiPassCount     int
	parallelInfoCount  int
	fullPassConcurrent int
	httpTimeout        time.Duration
	retryMax           int

	// Share email addresses; sending is skipped when emailTo is empty
	emailTo   string
	emailFrom string

	runSinglePass       bool
	runMultiPass        bool
	runParallelInfoSame bool
	runParallelInfoDiff bool
	runFullParallel     bool

	showSummary bool
}

type checker struct {
	cfg     config
	client  *client.Client
	metrics *metricsCollector
}

type operationMetrics struct {
	Name     string
	Duration time.Duration
	Size     int64
	Error    error
}

type stepMetrics struct {
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Operations []operationMetrics
	Success    bool
	Error      error
}

type metricsCollector struct {
	mu          sync.Mutex
	steps       []stepMetrics
	currentStep *stepMetrics
	showSummary bool
	totals      map[string]int
	totalBytes  int64
}

func main() {
	cfg := parseFlags()
	check := newChecker(cfg)

	if err := check.run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "imushare-check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ All selected check steps completed successfully")
	check.metrics.printSummary()
}

func parseFlags() config {
	server := flag.String("server", defaultServerURL, "Share server base URL")
	size := flag.Int("size", defaultFileSize, "Test file size in bytes")
	timeout := flag.Duration("http-timeout", defaultHTTPTimeout, "HTTP client timeout")
	retryMax := flag.Int("retries", defaultRetryMax, "Retries on connection errors")

	multi := flag.Int("passes", defaultMultiPassCount, "Number of sequential passes to execute (for step 2)")
	parallelInfo := flag.Int("parallel-info", defaultParallelInfo, "Number of parallel info requests to issue (for steps 3 & 4)")
	fullParallel := flag.Int("parallel-full", defaultFullPassParallel, "Number of concurrent full passes to execute (for step 5)")

	emailTo := flag.String("email-to", "", "Recipient of share emails; no emails are sent when empty")
	emailFrom := flag.String("email-from", "imushare-check@localhost", "Sender of share emails")

	step1 := flag.Bool("step1", false, "Run Step 1: Single pass test")
	step2 := flag.Bool("step2", false, "Run Step 2: Multiple sequential passes")
	step3 := flag.Bool("step3", false, "Run Step 3: Parallel info requests for same file")
	step4 := flag.Bool("step4", false, "Run Step 4: Parallel info requests for different files")
	step5 := flag.Bool("step5", false, "Run Step 5: Full passes in parallel")
	noSummary := flag.Bool("no-summary", false, "Disable metrics summary")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nCheck Steps:\n")
		fmt.Fprintf(os.Stderr, "  Step 1: Single pass (upload, info, download, send)\n")
		fmt.Fprintf(os.Stderr, "  Step 2: Multiple sequential passes\n")
		fmt.Fprintf(os.Stderr, "  Step 3: Parallel info requests for the same file\n")
		fmt.Fprintf(os.Stderr, "  Step 4: Parallel info requests for different files\n")
		fmt.Fprintf(os.Stderr, "  Step 5: Full passes in parallel\n")
		fmt.Fprintf(os.Stderr, "\nBy default, all steps run. Use individual -step flags to run specific checks.\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	anyStepSelected := *step1 || *step2 || *step3 || *step4 || *step5
	cfg := config{
		serverURL:          strings.TrimRight(*server, "/"),
		fileSize:           *size,
		multiPassCount:     *multi,
		parallelInfoCount:  *parallelInfo,
		fullPassConcurrent: *fullParallel,
		httpTimeout:        *timeout,
		retryMax:           *retryMax,
		emailTo:            strings.TrimSpace(*emailTo),
		emailFrom:          strings.TrimSpace(*emailFrom),

		// If no specific step is selected, run all
		runSinglePass:       *step1 || !anyStepSelected,
		runMultiPass:        *step2 || !anyStepSelected,
		runParallelInfoSame: *step3 || !anyStepSelected,
		runParallelInfoDiff: *step4 || !anyStepSelected,
		runFullParallel:     *step5 || !anyStepSelected,

		showSummary: !*noSummary,
	}

	validateAndNormalizeConfig(&cfg)
	return cfg
}

func validateAndNormalizeConfig(cfg *config) {
	if cfg.serverURL == "" {
		cfg.serverURL = defaultServerURL
	}
	if cfg.fileSize <= 0 {
		fmt.Fprintf(os.Stderr, "invalid file size: %d\n", cfg.fileSize)
		os.Exit(1)
	}
	if cfg.multiPassCount <= 0 {
		cfg.multiPassCount = defaultMultiPassCount
	}
	if cfg.parallelInfoCount <= 0 {
		cfg.parallelInfoCount = defaultParallelInfo
	}
	if cfg.fullPassConcurrent <= 0 {
		cfg.fullPassConcurrent = defaultFullPassParallel
	}
	if cfg.retryMax == 0 {
		cfg.retryMax = -1
	}
}

func newChecker(cfg config) *checker {
	return &checker{
		cfg: cfg,
		client: client.New(cfg.serverURL, client.Options{
			RetryMax: cfg.retryMax,
			Timeout:  cfg.httpTimeout,
		}),
		metrics: &metricsCollector{
			showSummary: cfg.showSummary,
			totals:      make(map[string]int),
		},
	}
}

func (m *metricsCollector) startStep(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentStep = &stepMetrics{Name: name, StartTime: time.Now()}
}

func (m *metricsCollector) endStep(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentStep != nil {
		m.currentStep.Duration = time.Since(m.currentStep.StartTime)
		m.currentStep.Success = err == nil
		m.currentStep.Error = err
		m.steps = append(m.steps, *m.currentStep)
		m.currentStep = nil
	}
}

func (m *metricsCollector) recordOperation(name string, duration time.Duration, size int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentStep != nil {
		m.currentStep.Operations = append(m.currentStep.Operations, operationMetrics{
			Name:     name,
			Duration: duration,
			Size:     size,
			Error:    err,
		})
	}

	m.totals[name]++
	if size > 0 {
		m.totalBytes += size
	}
}

func (m *metricsCollector) printSummary() {
	if !m.showSummary {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Println("\n" + strings.Repeat("=", separatorLineLength))
	fmt.Println("METRICS SUMMARY")
	fmt.Println(strings.Repeat("=", separatorLineLength))

	fmt.Printf("\nOverall Statistics:\n")
	fmt.Printf("  Total uploads:   %d\n", m.totals["upload"])
	fmt.Printf("  Total downloads: %d\n", m.totals["download"])
	fmt.Printf("  Total info:      %d\n", m.totals["info"])
	fmt.Printf("  Total sends:     %d\n", m.totals["send"])
	fmt.Printf("  Total bytes:     %s\n", humanize.IBytes(uint64(m.totalBytes)))

	fmt.Printf("\nStep-by-Step Breakdown:\n")
	var totalDuration time.Duration
	for _, step := range m.steps {
		totalDuration += step.Duration

		status := "✓"
		if !step.Success {
			status = "✗"
		}
		fmt.Printf("\n  %s %s (%.2fs)\n", status, step.Name, step.Duration.Seconds())

		opCounts := make(map[string]int)
		opDurations := make(map[string]time.Duration)
		for _, op := range step.Operations {
			opCounts[op.Name]++
			opDurations[op.Name] += op.Duration
		}

		for opName, count := range opCounts {
			avgDuration := opDurations[opName] / time.Duration(count)
			fmt.Printf("    - %s: %d operations, avg %.3fms\n", opName, count, float64(avgDuration.Microseconds())/microsecondsToMillis)
		}

		if step.Error != nil {
			fmt.Printf("    Error: %v\n", step.Error)
		}
	}

	fmt.Printf("\nTiming Summary:\n")
	fmt.Printf("  Total execution time: %.2fs\n", totalDuration.Seconds())

	if m.totalBytes > 0 && totalDuration > 0 {
		throughput := float64(m.totalBytes) / totalDuration.Seconds()
		fmt.Printf("  Average throughput:   %s/s\n", humanize.IBytes(uint64(throughput)))
	}

	fmt.Println(strings.Repeat("=", separatorLineLength))
}

type checkStep struct {
	shouldRun bool
	runFunc   func(context.Context) error
}

func (c *checker) run(ctx context.Context) error {
	steps := []checkStep{
		{c.cfg.runSinglePass, c.runSinglePassStep},
		{c.cfg.runMultiPass, c.runMultiPassStep},
		{c.cfg.runParallelInfoSame, c.runParallelInfoSameStep},
		{c.cfg.runParallelInfoDiff, c.runParallelInfoDiffStep},
		{c.cfg.runFullParallel, c.runFullParallelStep},
	}

	stepsRun := 0
	for _, step := range steps {
		if !step.shouldRun {
			continue
		}
		if err := step.runFunc(ctx); err != nil {
			return err
		}
		stepsRun++
	}

	if stepsRun == 0 {
		return errors.New("no check steps selected")
	}
	return nil
}

func (c *checker) runSinglePassStep(ctx context.Context) error {
	fmt.Println("Step 1: Running single pass")
	c.metrics.startStep("Step 1: Single pass")
	_, err := c.performPass(ctx)
	c.metrics.endStep(err)
	if err != nil {
		return fmt.Errorf("single pass failed: %w", err)
	}
	fmt.Println("✓ Step 1 completed successfully")
	return nil
}

func (c *checker) runMultiPassStep(ctx context.Context) error {
	fmt.Printf("\nStep 2: Running %d sequential passes\n", c.cfg.multiPassCount)
	c.metrics.startStep(fmt.Sprintf("Step 2: %d sequential passes", c.cfg.multiPassCount))

	for i := 1; i <= c.cfg.multiPassCount; i++ {
		fmt.Printf("  Pass %d/%d...\n", i, c.cfg.multiPassCount)
		if _, err := c.performPass(ctx); err != nil {
			c.metrics.endStep(err)
			return fmt.Errorf("sequential pass %d failed: %w", i, err)
		}
	}
	c.metrics.endStep(nil)
	fmt.Println("✓ Step 2 completed successfully")
	return nil
}

func (c *checker) runParallelInfoSameStep(ctx context.Context) error {
	fmt.Printf("\nStep 3: Running %d parallel info requests for a single file\n", c.cfg.parallelInfoCount)
	c.metrics.startStep(fmt.Sprintf("Step 3: %d parallel info for same file", c.cfg.parallelInfoCount))

	id, err := c.performPass(ctx)
	if err == nil {
		err = runParallel(c.cfg.parallelInfoCount, func(int) error {
			return c.fetchInfo(ctx, id, int64(c.cfg.fileSize))
		})
	}

	c.metrics.endStep(err)
	if err != nil {
		return fmt.Errorf("parallel info (same file) failed: %w", err)
	}
	fmt.Println("✓ Step 3 completed successfully")
	return nil
}

func (c *checker) runParallelInfoDiffStep(ctx context.Context) error {
	fmt.Printf("\nStep 4: Running %d parallel info requests for different files\n", c.cfg.parallelInfoCount)
	c.metrics.startStep(fmt.Sprintf("Step 4: %d parallel info for different files", c.cfg.parallelInfoCount))

	ids := make([]string, 0, c.cfg.parallelInfoCount)
	for i := 0; i < c.cfg.parallelInfoCount; i++ {
		id, err := c.performPass(ctx)
		if err != nil {
			c.metrics.endStep(err)
			return fmt.Errorf("preparing file %d for parallel info failed: %w", i+1, err)
		}
		ids = append(ids, id)
	}

	err := runParallel(len(ids), func(i int) error {
		return c.fetchInfo(ctx, ids[i], int64(c.cfg.fileSize))
	})

	c.metrics.endStep(err)
	if err != nil {
		return fmt.Errorf("parallel info (different files) failed: %w", err)
	}
	fmt.Println("✓ Step 4 completed successfully")
	return nil
}

func (c *checker) runFullParallelStep(ctx context.Context) error {
	fmt.Printf("\nStep 5: Running %d full passes in parallel\n", c.cfg.fullPassConcurrent)
	c.metrics.startStep(fmt.Sprintf("Step 5: %d full passes in parallel", c.cfg.fullPassConcurrent))

	err := runParallel(c.cfg.fullPassConcurrent, func(int) error {
		_, passErr := c.performPass(ctx)
		return passErr
	})

	c.metrics.endStep(err)
	if err != nil {
		return fmt.Errorf("parallel passes failed: %w", err)
	}
	fmt.Println("✓ Step 5 completed successfully")
	return nil
}

// performPass uploads random data, verifies info and download, then shares
// the file when a recipient is configured. Files stay on the server.
func (c *checker) performPass(ctx context.Context) (string, error) {
	data := make([]byte, c.cfg.fileSize)
	if _, err := rand.Read(data); err != nil {
		return "", fmt.Errorf("generate random data: %w", err)
	}

	id, err := c.uploadFile(ctx, data)
	if err != nil {
		return "", err
	}
	if err := c.fetchInfo(ctx, id, int64(len(data))); err != nil {
		return "", err
	}
	if err := c.verifyDownload(ctx, id, data); err != nil {
		return "", err
	}
	if c.cfg.emailTo != "" {
		if err := c.sendEmail(ctx, id); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (c *checker) uploadFile(ctx context.Context, data []byte) (string, error) {
	start := time.Now()
	name := fmt.Sprintf("imushare-check-%d.bin", time.Now().UnixNano())

	link, err := c.client.Upload(ctx, name, bytes.NewReader(data))
	c.metrics.recordOperation("upload", time.Since(start), int64(len(data)), err)
	if err != nil {
		return "", err
	}
	return client.IDFromLink(link), nil
}

func (c *checker) fetchInfo(ctx context.Context, id string, expectedSize int64) error {
	start := time.Now()
	info, err := c.client.Info(ctx, id)
	if err == nil {
		switch {
		case info.UUID != id:
			err = fmt.Errorf("info uuid mismatch: expected %s, got %s", id, info.UUID)
		case info.SizeBytes != expectedSize:
			err = fmt.Errorf("info size mismatch: expected %d, got %d", expectedSize, info.SizeBytes)
		}
	}
	c.metrics.recordOperation("info", time.Since(start), 0, err)
	return err
}

func (c *checker) verifyDownload(ctx context.Context, id string, expected []byte) error {
	start := time.Now()

	var buf bytes.Buffer
	written, err := c.client.Download(ctx, id, &buf)
	if err == nil && !bytes.Equal(buf.Bytes(), expected) {
		err = errors.New("downloaded data mismatch")
	}
	c.metrics.recordOperation("download", time.Since(start), written, err)
	return err
}

func (c *checker) sendEmail(ctx context.Context, id string) error {
	start := time.Now()
	err := c.client.Send(ctx, id, c.cfg.emailTo, c.cfg.emailFrom)
	c.metrics.recordOperation("send", time.Since(start), 0, err)
	return err
}

func runParallel(count int, function func(int) error) error {
	var waitGroup sync.WaitGroup
	errCh := make(chan error, count)

	for index := 0; index < count; index++ {
		waitGroup.Add(1)
		go func(idx int) {
			defer waitGroup.Done()
			if err := function(idx); err != nil {
				errCh <- err
			}
		}(index)
	}

	waitGroup.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return nil
}
