package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// Load test of the read API. Refresh is left out since every refresh costs
// GitHub API calls; seed the server with `followtrack import` first.

type options struct {
	baseURL  string
	workers  int
	duration time.Duration
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "loadtest",
		Short:         "Hammer the followtrack read endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "url", "http://127.0.0.1:18090", "server base URL")
	cmd.Flags().IntVar(&opts.workers, "workers", 50, "concurrent workers")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "duration of each phase")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	fmt.Println("=== FollowTrack Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n\n", opts.workers, opts.duration)

	fmt.Print("Waiting for server... ")
	accounts, err := waitForAccounts(opts.baseURL)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Printf("OK, %d accounts\n", len(accounts))
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts stored, seed the server first")
	}

	// unknown accounts exercise the 404 and empty history paths
	pick := func(rng *rand.Rand) string {
		if rng.Float64() < 0.1 {
			return fmt.Sprintf("ghost-%d", rng.Intn(1000))
		}
		return accounts[rng.Intn(len(accounts))]
	}

	fmt.Println("\n--- Phase 1: History and snapshot reads ---")
	runPhase(opts, func(rng *rand.Rand) result {
		if rng.Float64() < 0.5 {
			return doGet(opts.baseURL, "/history", pick(rng), http.StatusOK)
		}
		return doGet(opts.baseURL, "/snapshot", pick(rng), http.StatusOK, http.StatusNotFound)
	})

	fmt.Println("\n--- Phase 2: Mixed dashboard load ---")
	runPhase(opts, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doGet(opts.baseURL, "/history", pick(rng), http.StatusOK)
		case r < 0.75:
			return doGet(opts.baseURL, "/snapshot", pick(rng), http.StatusOK, http.StatusNotFound)
		case r < 0.90:
			return doGet(opts.baseURL, "/accounts", "", http.StatusOK)
		default:
			return doGet(opts.baseURL, "/health", "", http.StatusOK)
		}
	})
	return nil
}

func waitForAccounts(baseURL string) ([]string, error) {
	var lastErr error
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/accounts")
		if err == nil {
			var accounts []string
			err = json.NewDecoder(resp.Body).Decode(&accounts)
			resp.Body.Close()
			if err == nil {
				return accounts, nil
			}
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	return nil, fmt.Errorf("server not responding: %w", lastErr)
}

func runPhase(opts *options, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(opts.duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, opts.duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-16s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-16s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 76))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doGet(baseURL, path, account string, okStatus ...int) result {
	target := baseURL + path
	if account != "" {
		target += "?u=" + url.QueryEscape(account)
	}
	endpoint := "GET " + path

	start := time.Now()
	resp, err := httpClient.Get(target)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	failed := true
	for _, s := range okStatus {
		if resp.StatusCode == s {
			failed = false
		}
	}
	return result{endpoint, resp.StatusCode, lat, failed}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
