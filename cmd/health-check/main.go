// Package main provides a standalone health check command, usable for
// Docker health checks and monitoring scripts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

func main() {
	var (
		url     = flag.String("url", "", "health endpoint URL (defaults to $HEALTH_CHECK_URL or localhost)")
		timeout = flag.Duration("timeout", 10*time.Second, "request timeout")
		verbose = flag.Bool("verbose", false, "print the full health response")
	)
	flag.Parse()

	target := *url
	if target == "" {
		target = os.Getenv("HEALTH_CHECK_URL")
	}
	if target == "" {
		target = "http://localhost:8080/health"
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check request failed: %v\n", err)
		os.Exit(exitCodeError)
	}
	defer resp.Body.Close()

	var body struct {
		Status string          `json:"status"`
		Checks json.RawMessage `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Fprintf(os.Stderr, "health check response malformed: %v\n", err)
		os.Exit(exitCodeError)
	}

	if *verbose {
		fmt.Printf("status: %s\nchecks: %s\n", body.Status, body.Checks)
	} else {
		fmt.Println(body.Status)
	}

	if resp.StatusCode == http.StatusOK && body.Status != "unhealthy" {
		os.Exit(exitCodeSuccess)
	}
	os.Exit(exitCodeFailure)
}
