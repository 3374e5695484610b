// Package common provides shared test infrastructure
package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testImage  = "clearstock-server:test"
	serverPort = "3000/tcp"
)

var (
	buildOnce  sync.Once
	buildError error
)

// EnvOptions configures the Docker test environment
type EnvOptions struct {
	// Env is passed to the server container, e.g. provider keys or CLEARSTOCK_ENV
	Env map[string]string
}

// Env represents an isolated Docker test environment running clearstock-server
type Env struct {
	t          *testing.T
	container  testcontainers.Container
	ctx        context.Context
	cancel     context.CancelFunc
	baseURL    string
	client     *http.Client
	ResultsDir string
}

// buildTestImage builds the Docker image once per test run
func buildTestImage() error {
	buildOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				FromDockerfile: testcontainers.FromDockerfile{
					Context:    findProjectRoot(),
					Dockerfile: "tests/docker/Dockerfile",
					Repo:       "clearstock-server",
					Tag:        "test",
					KeepImage:  true,
				},
			},
		}

		// Creating (not starting) the container builds and keeps the image
		c, err := testcontainers.GenericContainer(ctx, req)
		if err != nil {
			buildError = fmt.Errorf("build %s: %w", testImage, err)
			return
		}
		_ = c.Terminate(ctx)
	})
	return buildError
}

// NewEnv creates a new isolated Docker test environment with default options.
func NewEnv(t *testing.T) *Env {
	return NewEnvWithOptions(t, EnvOptions{})
}

// NewEnvWithOptions starts clearstock-server in a container with embedded badger storage.
func NewEnvWithOptions(t *testing.T, opts EnvOptions) *Env {
	t.Helper()

	if os.Getenv("CLEARSTOCK_TEST_DOCKER") != "true" {
		t.Skip("Docker tests disabled (set CLEARSTOCK_TEST_DOCKER=true to enable)")
		return nil
	}

	if err := buildTestImage(); err != nil {
		t.Fatalf("Failed to build test image: %v", err)
	}

	// Results directory: {datetime}-{test-name}
	datetime := time.Now().Format("20060102-150405")
	resultsDir := filepath.Join(findProjectRoot(), "tests", "results", datetime+"-"+strings.ReplaceAll(t.Name(), "/", "_"))
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		t.Fatalf("Failed to create results dir: %v", err)
	}

	timeout := 90 * time.Second
	if envTimeout := os.Getenv("CLEARSTOCK_TEST_TIMEOUT"); envTimeout != "" {
		if d, err := time.ParseDuration(envTimeout); err == nil {
			timeout = d
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	env := map[string]string{"CLEARSTOCK_LOG_LEVEL": "debug"}
	for k, v := range opts.Env {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImage,
			ExposedPorts: []string{serverPort},
			Env:          env,
			WaitingFor: wait.ForHTTP("/health").
				WithPort(serverPort).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		cancel()
		t.Fatalf("Failed to start container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		cancel()
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, serverPort)
	if err != nil {
		cancel()
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	e := &Env{
		t:          t,
		container:  container,
		ctx:        ctx,
		cancel:     cancel,
		baseURL:    fmt.Sprintf("http://%s:%s", host, port.Port()),
		client:     &http.Client{Timeout: 30 * time.Second},
		ResultsDir: resultsDir,
	}
	t.Logf("Container started at %s", e.baseURL)
	return e
}

// Cleanup tears down the container and collects logs
func (e *Env) Cleanup() {
	if e == nil {
		return
	}

	e.collectLogs()

	if e.container != nil {
		if err := e.container.Terminate(e.ctx); err != nil {
			e.t.Logf("Warning: failed to terminate container: %v", err)
		}
	}

	if e.cancel != nil {
		e.cancel()
	}
}

// Context returns the test context
func (e *Env) Context() context.Context {
	return e.ctx
}

// BaseURL returns the server address reachable from the test process
func (e *Env) BaseURL() string {
	return e.baseURL
}

// HTTPGet sends a GET request to the server
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(e.ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return e.client.Do(req)
}

// HTTPPost sends body as JSON to the server
func (e *Env) HTTPPost(path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(e.ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.client.Do(req)
}

// ReadJSON decodes a response body and saves it to the results directory under name
func (e *Env) ReadJSON(resp *http.Response, name string) map[string]interface{} {
	e.t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read response: %v", err)
	}
	if err := e.SaveResult(name+".json", []byte(FormatJSON(body))); err != nil {
		e.t.Logf("Warning: failed to save result: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		e.t.Fatalf("decode response %q: %v", truncate(string(body), 200), err)
	}
	return out
}

// SaveResult saves test output to the results directory
func (e *Env) SaveResult(name string, data []byte) error {
	return os.WriteFile(filepath.Join(e.ResultsDir, name), data, 0644)
}

// collectLogs saves container logs to results directory
func (e *Env) collectLogs() {
	if e.container == nil {
		return
	}

	reader, err := e.container.Logs(e.ctx)
	if err != nil {
		e.t.Logf("Warning: failed to get container logs: %v", err)
		return
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		e.t.Logf("Warning: failed to read container logs: %v", err)
		return
	}

	logPath := filepath.Join(e.ResultsDir, "container.log")
	if err := os.WriteFile(logPath, logs, 0644); err != nil {
		e.t.Logf("Warning: failed to save logs: %v", err)
	}
}

// findProjectRoot walks up directories to find go.mod
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// FormatJSON pretty-prints JSON for readable output
func FormatJSON(data []byte) string {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return string(data)
	}
	formatted, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(formatted)
}
