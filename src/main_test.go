package main

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/pipeline"
	"GamesAnalysis/src/storage"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*config.Config, *pipeline.Store, *pipeline.Refresher, *storage.Logger) {
	t.Helper()
	dir := t.TempDir()

	data, err := os.ReadFile("testdata/athletes.csv")
	require.NoError(t, err)
	dataFile := filepath.Join(dir, "athletes.csv")
	require.NoError(t, os.WriteFile(dataFile, data, 0644))

	cfg := &config.Config{LogName: filepath.Join(dir, "app.log"), LogMaxSize: "10 * 1024 * 1024"}
	cfg.Data.FilePath = dataFile
	cfg.Watch.CheckInterval = config.Duration(time.Second)

	logger, err := storage.NewLogger(cfg.LogName)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	store := &pipeline.Store{}
	return cfg, store, pipeline.NewRefresher(cfg, config.DefaultDataConfig(), logger, store, nil), logger
}

func TestCronSpec(t *testing.T) {
	assert.Equal(t, "@every 30s", cronSpec(30*time.Second))
	assert.Equal(t, "@every 5m0s", cronSpec(5*time.Minute))
}

func TestStartSchedule(t *testing.T) {
	cfg, store, refresher, logger := setup(t)

	c, err := startSchedule(cfg, refresher, logger)
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return store.Get() != nil }, 5*time.Second, 50*time.Millisecond)
}

func TestWatchFile(t *testing.T) {
	cfg, store, refresher, logger := setup(t)
	_, err := refresher.Refresh(true)
	require.NoError(t, err)
	first := store.Get()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchFile(ctx, cfg.Data.FilePath, refresher, logger)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	data, err := os.ReadFile(cfg.Data.FilePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Data.FilePath, data, 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(cfg.Data.FilePath, future, future))

	assert.Eventually(t, func() bool { return store.Get() != first }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop")
	}
}

func TestWaitForShutdown(t *testing.T) {
	cfg, store, refresher, logger := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 2)
	sigChan <- syscall.SIGHUP
	sigChan <- syscall.SIGTERM

	waitForShutdown(ctx, cancel, sigChan, cfg, refresher, logger)

	assert.Error(t, ctx.Err())
	// SIGHUP 触发强制重新分析
	assert.NotNil(t, store.Get())

	content, err := os.ReadFile(cfg.LogName)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "Received SIGHUP"))
	assert.Contains(t, string(content), "shutting down")
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	cfg, store, refresher, logger := setup(t)
	refresh(refresher, logger, true)
	first := store.Get()
	require.NotNil(t, first)

	require.NoError(t, os.Remove(cfg.Data.FilePath))
	refresh(refresher, logger, true)
	assert.Same(t, first, store.Get())

	content, err := os.ReadFile(cfg.LogName)
	require.NoError(t, err)
	assert.Contains(t, string(content), "保留上一次结果")
}

func TestShippedConfigRuns(t *testing.T) {
	cfg, dcfg, err := config.LoadConfig("./config", "config.json", "dataconfig.json")
	require.NoError(t, err)

	_, err = os.Stat(cfg.Data.FilePath)
	require.NoError(t, err)

	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	defer logger.Close()

	snap, err := pipeline.Run(cfg, dcfg, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Raw.Nrow())
}
