package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/darshan15062002/stock-analysis/internal/common"
	tcommon "github.com/darshan15062002/stock-analysis/tests/common"
)

// testDB starts the shared SurrealDB container and returns a connected *surreal.DB
// using a unique database name per test to ensure isolation.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("SurrealDB container tests skipped in -short mode")
	}

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	// SurrealDB rejects "/" in database names, which subtests produce
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(ctx, common.SurrealDBConfig{
		Address:   sc.Address(),
		Username:  "root",
		Password:  "root",
		Namespace: "clearstock_test",
		Database:  fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000),
	}, testLogger())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return db
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
