// Command shadow_compare replays read endpoints against the Go API and
// the legacy Next.js app side by side and reports response diffs. Used
// during cutover to verify the port answers like the app it replaces.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type manifest struct {
	Endpoints []endpoint `json:"endpoints"`
	// Fields that legitimately differ between the two stacks
	// (generated ids, timestamps) and are dropped before comparing.
	IgnoreFields []string `json:"ignore_fields"`
}

type result struct {
	Endpoint      endpoint
	LegacyStatus  int
	GoStatus      int
	StatusMatch   bool
	BodyMatch     bool
	Err           error
	GoLatency     time.Duration
	LegacyLatency time.Duration
}

func main() {
	var (
		goBase       string
		legacyBase   string
		manifestPath string
		token        string
		timeout      time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy app base URL")
	flag.StringVar(&manifestPath, "manifest", filepath.Join("scripts", "shadow_compare", "endpoints.json"), "path to endpoint manifest")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token for authenticated routes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	m, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("failed to load manifest: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var breaking, optional int
	var results []result

	for _, ep := range m.Endpoints {
		res := compare(client, goBase, legacyBase, token, ep, m.IgnoreFields)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if ep.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints defined in %s", path)
	}
	return &m, nil
}

func compare(client *http.Client, goBase, legacyBase, token string, ep endpoint, ignore []string) result {
	res := result{Endpoint: ep}

	goResp, goDur, err := request(client, goBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("go request failed: %w", err)
		return res
	}
	defer goResp.Body.Close()

	legacyResp, legacyDur, err := request(client, legacyBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}
	defer legacyResp.Body.Close()

	res.GoLatency = goDur
	res.LegacyLatency = legacyDur
	res.GoStatus = goResp.StatusCode
	res.LegacyStatus = legacyResp.StatusCode
	res.StatusMatch = res.GoStatus == res.LegacyStatus

	goBody, err := io.ReadAll(goResp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read go body: %w", err)
		return res
	}
	legacyBody, err := io.ReadAll(legacyResp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read legacy body: %w", err)
		return res
	}

	res.BodyMatch = bodiesEqual(goBody, legacyBody, ignore)
	return res
}

func request(client *http.Client, base, token string, ep endpoint) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := ep.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return string(a) == string(b)
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	scrub(&aj, ignore)
	scrub(&bj, ignore)
	return reflect.DeepEqual(aj, bj)
}

func scrub(v *interface{}, ignore []string) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for _, field := range ignore {
			delete(val, field)
		}
		for k, v2 := range val {
			scrub(&v2, ignore)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			scrub(&v2, ignore)
			val[i] = v2
		}
	}
}

func printReport(results []result) {
	for _, res := range results {
		status := "OK"
		switch {
		case res.Err != nil:
			status = "ERROR: " + res.Err.Error()
		case !res.StatusMatch:
			status = fmt.Sprintf("STATUS MISMATCH go=%d legacy=%d", res.GoStatus, res.LegacyStatus)
		case !res.BodyMatch:
			status = "BODY MISMATCH"
		}
		fmt.Printf("%-6s %-40s %-12s go=%s legacy=%s\n",
			res.Endpoint.Method, res.Endpoint.Path, status,
			res.GoLatency.Round(time.Millisecond), res.LegacyLatency.Round(time.Millisecond))
	}
}
