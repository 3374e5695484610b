package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// sharedService is a database container started at most once per test binary.
type sharedService struct {
	name    string
	port    string
	request testcontainers.ContainerRequest

	once      sync.Once
	container testcontainers.Container
	host      string
	mapped    string
	err       error
}

var surrealService = &sharedService{
	name: "SurrealDB",
	port: "8000/tcp",
	request: testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v3.0.0",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", "root", "--pass", "root"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	},
}

var postgresService = &sharedService{
	name: "Postgres",
	port: "5432/tcp",
	request: testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "clearstock",
			"POSTGRES_PASSWORD": "clearstock",
			"POSTGRES_DB":       "clearstock",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	},
}

// start skips the test when no Docker provider is reachable and fails it when the
// container itself cannot be brought up.
func (s *sharedService) start(t *testing.T) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	s.once.Do(func() {
		ctx := context.Background()
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: s.request,
			Started:          true,
		})
		if err != nil {
			s.err = fmt.Errorf("start %s container: %w", s.name, err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s host: %w", s.name, err)
			return
		}
		mapped, err := container.MappedPort(ctx, nat.Port(s.port))
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s port: %w", s.name, err)
			return
		}

		s.container, s.host, s.mapped = container, host, mapped.Port()
	})

	if s.err != nil {
		t.Fatalf("%s container failed: %v", s.name, s.err)
	}
}

// Cleanup terminates the shared container. Call from TestMain if needed.
func (s *sharedService) Cleanup() {
	if s != nil && s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// SurrealDBContainer is the shared SurrealDB instance backing the subscription store tests.
type SurrealDBContainer struct{ *sharedService }

// StartSurrealDB starts (once) and returns the shared SurrealDB container.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	surrealService.start(t)
	return &SurrealDBContainer{surrealService}
}

// Address returns the WebSocket RPC address for SurrealDB.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.mapped)
}

// PostgresContainer is the shared PostgreSQL instance backing the subscription store tests.
type PostgresContainer struct{ *sharedService }

// StartPostgres starts (once) and returns the shared PostgreSQL container.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	postgresService.start(t)
	return &PostgresContainer{postgresService}
}

// DSN returns a lib/pq connection string for the container.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://clearstock:clearstock@%s:%s/clearstock?sslmode=disable", c.host, c.mapped)
}
