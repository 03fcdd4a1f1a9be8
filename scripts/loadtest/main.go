// Loadtest is a concurrent load generator for the CEP resolver. It reports
// throughput, latency percentiles and the provider distribution taken from
// the X-Provider response header.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:3000 -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -codes 01310100,20040020 -purge -csv results.csv -out summary.json
//
// With -purge the cache is cleared before the run so the distribution
// reflects provider selection rather than cache hits.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const providerHeader = "X-Provider"

type providerStats struct {
	Count     int32
	Latencies []time.Duration
}

type summary struct {
	P50 float64 `json:"p50_ms"`
	P90 float64 `json:"p90_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:3000", "Resolver base URL")
		codes       = flag.String("codes", "01310100,20040020,30130010,40010000,70040010", "Comma-separated CEPs to request")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		purge       = flag.Bool("purge", false, "Clear the resolver cache before the run")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		outCSV      = flag.String("csv", "", "Write per-request CSV to this file (optional)")
		verbose     = flag.Bool("v", false, "Verbose per-request logging to stdout")
	)
	flag.Parse()

	targets := strings.Split(*codes, ",")
	client := &http.Client{Timeout: *timeout}

	if *purge {
		if err := purgeCache(client, *baseURL); err != nil {
			fmt.Fprintf(os.Stderr, "failed to purge cache: %v\n", err)
			os.Exit(1)
		}
	}

	var (
		total, success, failure int32

		mu           sync.Mutex
		byProvider   = make(map[string]*providerStats)
		statusCodes  = make(map[int]int32)
		allLatencies []time.Duration
	)

	var csvWriter *csv.Writer
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		csvWriter = csv.NewWriter(f)
		_ = csvWriter.Write([]string{"idx", "timestamp", "cep", "provider", "status", "duration_ms"})
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				atomic.AddInt32(&total, 1)
				code := strings.TrimSpace(targets[idx%len(targets)])

				start := time.Now()
				resp, err := client.Get(*baseURL + "/cep/" + code)
				dur := time.Since(start)

				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d cep=%s error=%v\n", workerID, idx, code, err)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				if resp.StatusCode == http.StatusOK {
					atomic.AddInt32(&success, 1)
				} else {
					atomic.AddInt32(&failure, 1)
				}

				provider := resp.Header.Get(providerHeader)
				if provider == "" {
					provider = "(none)"
				}

				mu.Lock()
				allLatencies = append(allLatencies, dur)
				statusCodes[resp.StatusCode]++
				ps, ok := byProvider[provider]
				if !ok {
					ps = &providerStats{}
					byProvider[provider] = ps
				}
				ps.Count++
				ps.Latencies = append(ps.Latencies, dur)
				if csvWriter != nil {
					_ = csvWriter.Write([]string{
						strconv.Itoa(idx),
						time.Now().Format(time.RFC3339Nano),
						code,
						provider,
						strconv.Itoa(resp.StatusCode),
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
					})
				}
				mu.Unlock()

				if *verbose {
					fmt.Printf("[%d] idx=%d cep=%s provider=%s status=%d dur=%v\n", workerID, idx, code, provider, resp.StatusCode, dur)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	totalDuration := time.Since(testStart)

	if csvWriter != nil {
		csvWriter.Flush()
	}

	throughput := float64(total) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s  CEPs: %d\n", *baseURL, len(targets))
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Total sent: %d  Success: %d  Failure: %d\n", total, success, failure)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	fmt.Println("\nStatus codes:")
	scKeys := make([]int, 0, len(statusCodes))
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}

	fmt.Println("\nProvider distribution:")
	names := make([]string, 0, len(byProvider))
	for k := range byProvider {
		names = append(names, k)
	}
	sort.Strings(names)

	report := map[string]summary{}
	for _, name := range names {
		ps := byProvider[name]
		share := 100 * float64(ps.Count) / float64(max(total, 1))
		s := percentiles(ps.Latencies)
		report[name] = s
		fmt.Printf("  %s -> %d (%.1f%%)  p50=%.1fms p90=%.1fms p95=%.1fms p99=%.1fms\n",
			name, ps.Count, share, s.P50, s.P90, s.P95, s.P99)
	}

	if len(allLatencies) > 0 {
		s := percentiles(allLatencies)
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d p50=%.1fms p90=%.1fms p95=%.1fms p99=%.1fms\n",
			len(allLatencies), s.P50, s.P90, s.P95, s.P99)
	}

	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	if *outJSON != "" {
		out := map[string]any{
			"target":         *baseURL,
			"requests":       *requests,
			"concurrency":    *concurrency,
			"total_sent":     total,
			"success":        success,
			"failure":        failure,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_rps": throughput,
			"providers":      report,
		}
		if err := writeJSON(*outJSON, out); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write json summary: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failure > 0 {
		os.Exit(2)
	}
}

func percentiles(samples []time.Duration) summary {
	if len(samples) == 0 {
		return summary{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	pick := func(p float64) float64 {
		d := sorted[int(float64(len(sorted)-1)*p)]
		return float64(d.Microseconds()) / 1000.0
	}
	return summary{P50: pick(0.50), P90: pick(0.90), P95: pick(0.95), P99: pick(0.99)}
}

func purgeCache(client *http.Client, baseURL string) error {
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/cache", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
