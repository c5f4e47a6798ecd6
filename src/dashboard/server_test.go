package dashboard

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/pipeline"
	"GamesAnalysis/src/storage"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, ready bool) (*Server, *storage.Logger) {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	store := &pipeline.Store{}
	if ready {
		cfg := &config.Config{}
		cfg.Data.FilePath = "testdata/athletes.csv"
		snap, err := pipeline.Run(cfg, config.DefaultDataConfig(), logger, nil)
		require.NoError(t, err)
		store.Set(snap)
	}
	return NewServer(store, config.DefaultDataConfig(), logger), logger
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNotReady(t *testing.T) {
	s, _ := newTestServer(t, false)
	for _, path := range []string{"/", "/figures/age_histogram", "/tables/raw", "/stats/describe"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, s, path).Code, path)
	}
}

func TestIndexListsFigures(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `src="/figures/correlation_heatmap"`)
	assert.Contains(t, body, `href="/columns/division"`)
	assert.Contains(t, body, `href="/columns/gender"`)
	// 只列出可选的分类列
	assert.NotContains(t, body, `href="/columns/competitorname"`)
	assert.Contains(t, body, "6 athletes")
}

func TestFigure(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/figures/score_by_gender_mean")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusNotFound, get(t, s, "/figures/nope").Code)
}

func TestTables(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/tables/cleaned")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, "division,age,gender,height,weight,overallscore", lines[0])
	assert.Len(t, lines, 7)

	rec = get(t, s, "/tables/raw")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "competitorid,"))

	assert.Equal(t, http.StatusNotFound, get(t, s, "/tables/other").Code)
}

func TestColumn(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/columns/gender")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp columnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"M", "F", "X"}, resp.Values)
	assert.Equal(t, 4, resp.Counts[2].Count)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/columns/nope").Code)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/stats/correlation")
	require.Equal(t, http.StatusOK, rec.Code)
	var corr struct {
		Columns []string     `json:"columns"`
		Matrix  [][]*float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &corr))
	require.Len(t, corr.Matrix, len(corr.Columns))
	for i := range corr.Matrix {
		require.NotNil(t, corr.Matrix[i][i])
		assert.Equal(t, 1.0, *corr.Matrix[i][i])
	}

	rec = get(t, s, "/stats/describe")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "0", rows[0]["group"])
	// 只有一个样本的分组标准差为 null
	assert.Nil(t, rows[2]["std"])
}

func TestLogsStream(t *testing.T) {
	s, logger := newTestServer(t, false)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/logs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(resp.Body).ReadString('\n')
		lines <- line
	}()

	deadline := time.After(5 * time.Second)
	for {
		logger.Info("ping")
		select {
		case line := <-lines:
			assert.Contains(t, line, "INFO: ping")
			return
		case <-deadline:
			t.Fatal("no log line received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeClosesLogStreamsOnCancel(t *testing.T) {
	s, logger := newTestServer(t, false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()

	// 确认订阅已建立
	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(resp.Body).ReadString('\n')
		lines <- line
	}()
	require.Eventually(t, func() bool {
		logger.Info("ping")
		select {
		case <-lines:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
