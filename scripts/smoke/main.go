package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Duration time.Duration
	Error    error
}

// smoke walks a list of read-only endpoints against a running instance
// and fails when a critical one misbehaves. Intended for post-deploy
// verification.
func main() {
	var (
		base        string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&token, "token", "", "Optional bearer token for protected endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	var failures int
	for _, t := range targets {
		res := check(client, base, token, t)
		printResult(res)
		if res.Error != nil || (t.Expect != 0 && res.Status != t.Expect) {
			if t.Critical {
				failures++
			}
		}
	}

	if failures > 0 {
		fmt.Printf("smoke: %d critical failure(s)\n", failures)
		os.Exit(1)
	}
	fmt.Println("smoke: all critical checks passed")
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func check(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}

	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	return res
}

func printResult(res result) {
	marker := "ok"
	if res.Error != nil {
		marker = "error"
	} else if res.Target.Expect != 0 && res.Status != res.Target.Expect {
		marker = "unexpected"
	}

	if res.Error != nil {
		fmt.Printf("[%s] %s %s: %v\n", marker, res.Target.Method, res.Target.Path, res.Error)
		return
	}
	fmt.Printf("[%s] %s %s: %d in %s\n", marker, res.Target.Method, res.Target.Path, res.Status, res.Duration.Round(time.Millisecond))
}
