// Cbcheck verifies fallback and circuit breaking against a running resolver
// whose primary provider points at a fakeupstream instance.
//
// Usage:
//
//	go run ./scripts/fakeupstream -kind viacep -port 9001 &
//	go run ./scripts/cbcheck -resolver http://localhost:3000 -upstream http://localhost:9001 -provider ViaCEP
//
// The resolver must run with circuit_breaker.enabled=true.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type healthResponse struct {
	Status    string `json:"status"`
	Providers map[string]struct {
		Healthy bool   `json:"healthy"`
		Circuit string `json:"circuit"`
	} `json:"providers"`
}

func main() {
	var (
		resolverURL = flag.String("resolver", "http://localhost:3000", "Resolver base URL")
		upstreamURL = flag.String("upstream", "http://localhost:9001", "fakeupstream base URL of the provider to break")
		providerArg = flag.String("provider", "ViaCEP", "Provider name as reported by /health")
		requests    = flag.Int("requests", 20, "Requests per phase")
		code        = flag.String("cep", "01310100", "CEP to request")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Println(colorCyan + "━━━ FALLBACK & CIRCUIT BREAKER CHECK ━━━" + colorReset)
	fmt.Println()

	fmt.Println(colorBlue + "━━━ PHASE 1: Normal Operation ━━━" + colorReset)
	must(setMode(client, *upstreamURL, "ok"))
	hits := lookups(client, *resolverURL, *code, *requests)
	printDistribution(hits)
	if len(hits) == 0 {
		fmt.Println(colorRed + "  ✗ No lookups succeeded. Is the resolver running?" + colorReset)
		os.Exit(1)
	}
	fmt.Println(colorGreen + "  ✓ Normal operation verified" + colorReset)
	fmt.Println()

	fmt.Println(colorBlue + "━━━ PHASE 2: Primary Failure & Fallback ━━━" + colorReset)
	must(setMode(client, *upstreamURL, "error"))
	hits = lookups(client, *resolverURL, *code, *requests)
	printDistribution(hits)
	if hits[*providerArg] > 0 {
		fmt.Printf(colorYellow+"  ⚠ %s still served %d lookups\n"+colorReset, *providerArg, hits[*providerArg])
	} else {
		fmt.Println(colorGreen + "  ✓ Lookups fell back to the remaining providers" + colorReset)
	}
	fmt.Println()

	fmt.Println(colorBlue + "━━━ PHASE 3: Circuit State ━━━" + colorReset)
	health, err := getHealth(client, *resolverURL)
	if err != nil {
		fmt.Printf(colorRed+"  ✗ Could not fetch /health: %v\n"+colorReset, err)
		os.Exit(1)
	}
	for name, p := range health.Providers {
		fmt.Printf("    %s → healthy=%v circuit=%s\n", name, p.Healthy, p.Circuit)
	}

	state := health.Providers[*providerArg].Circuit
	must(setMode(client, *upstreamURL, "ok"))

	switch state {
	case "OPEN", "HALF-OPEN":
		fmt.Println(colorGreen + "  ✓ Circuit opened after repeated failures" + colorReset)
	case "":
		fmt.Println(colorRed + "  ✗ No circuit reported. Is circuit_breaker.enabled set?" + colorReset)
		os.Exit(2)
	default:
		fmt.Printf(colorRed+"  ✗ Circuit is %s\n"+colorReset, state)
		os.Exit(2)
	}
}

// lookups purges the cache before every request so each one reaches a
// provider, and returns how many were served by each.
func lookups(client *http.Client, baseURL, code string, n int) map[string]int {
	hits := make(map[string]int)

	for i := 0; i < n; i++ {
		if err := purge(client, baseURL); err != nil {
			fmt.Printf(colorRed+"  Request %d: purge failed - %v\n"+colorReset, i+1, err)
			continue
		}

		resp, err := client.Get(baseURL + "/cep/" + code)
		if err != nil {
			fmt.Printf(colorRed+"  Request %d: ERROR - %v\n"+colorReset, i+1, err)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Printf(colorYellow+"  Request %d: Status=%d\n"+colorReset, i+1, resp.StatusCode)
			continue
		}
		hits[resp.Header.Get("X-Provider")]++
	}

	return hits
}

func printDistribution(hits map[string]int) {
	fmt.Println("  Provider distribution:")
	for name, count := range hits {
		fmt.Printf("    %s → %d lookups\n", name, count)
	}
}

func setMode(client *http.Client, upstreamURL, mode string) error {
	req, err := http.NewRequest(http.MethodPut, upstreamURL+"/mode?set="+mode, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("set mode %s: status %d", mode, resp.StatusCode)
	}
	return nil
}

func purge(client *http.Client, baseURL string) error {
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/cache", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func getHealth(client *http.Client, baseURL string) (*healthResponse, error) {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

func must(err error) {
	if err != nil {
		fmt.Printf(colorRed+"  ✗ %v\n"+colorReset, err)
		os.Exit(1)
	}
}
