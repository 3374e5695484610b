package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darshan15062002/stock-analysis/internal/common"
	"github.com/darshan15062002/stock-analysis/internal/models"
)

type countingCache struct {
	purges atomic.Int32
	closed atomic.Bool
	err    error
}

func (c *countingCache) Get(context.Context, string) ([]models.SourceRecord, bool, error) {
	return nil, false, nil
}

func (c *countingCache) Set(context.Context, string, []models.SourceRecord, time.Duration) error {
	return nil
}

func (c *countingCache) Purge(context.Context) error {
	c.purges.Add(1)
	return c.err
}

func (c *countingCache) Close() error {
	c.closed.Store(true)
	return nil
}

func TestPurgeInterval(t *testing.T) {
	if got := purgeInterval(5 * time.Second); got != time.Minute {
		t.Errorf("purgeInterval(5s) = %v, want 1m", got)
	}
	if got := purgeInterval(5 * time.Minute); got != 5*time.Minute {
		t.Errorf("purgeInterval(5m) = %v, want 5m", got)
	}
}

func TestStartCachePurge_TicksUntilCancelled(t *testing.T) {
	cache := &countingCache{err: errors.New("disk full")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		startCachePurge(ctx, cache, common.NewSilentLogger(), 5*time.Millisecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cache.purges.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not stop after cancel")
	}
	if n := cache.purges.Load(); n < 3 {
		t.Errorf("expected repeated purges despite errors, got %d", n)
	}
}

func TestApp_StartSchedulerPurgesCache(t *testing.T) {
	cache := &countingCache{}
	a := &App{Config: common.NewDefaultConfig(), Logger: common.NewSilentLogger(), Cache: cache}

	if err := a.StartScheduler(); err != nil {
		t.Fatalf("StartScheduler: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for cache.purges.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cache.purges.Load() == 0 {
		t.Fatal("expected an initial purge on start")
	}

	a.Close()
	if !cache.closed.Load() {
		t.Error("cache should be closed after the purge loop stops")
	}
}
