package dashboard

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/pipeline"
	"GamesAnalysis/src/processor"
	"GamesAnalysis/src/storage"
	"context"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Server 只读展示当前分析快照
type Server struct {
	store  *pipeline.Store
	dcfg   *config.DataConfig
	logger *storage.Logger
	router chi.Router
}

func NewServer(store *pipeline.Store, dcfg *config.DataConfig, logger *storage.Logger) *Server {
	s := &Server{store: store, dcfg: dcfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/figures/{name}", s.handleFigure)
	r.Get("/tables/{which}", s.handleTable)
	r.Get("/columns/{name}", s.handleColumn)
	r.Get("/stats/correlation", s.handleCorrelation)
	r.Get("/stats/describe", s.handleDescribe)
	r.Get("/logs", s.handleLogs)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe 阻塞直到 ctx 结束
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info(fmt.Sprintf("看板已启动: %s", ln.Addr()))
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上提供服务；ctx 结束时请求上下文一并取消，/logs 等长连接随之退出
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// snapshot 没有可用快照时直接返回 503
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) *pipeline.Snapshot {
	snap := s.store.Get()
	if snap == nil {
		http.Error(w, "analysis not ready", http.StatusServiceUnavailable)
	}
	return snap
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Games athletes</title></head>
<body>
<h1>Do age and gender influence athlete performance?</h1>
<p>Source: {{.Source}} ({{.Rows}} athletes, loaded {{.LoadedAt}})</p>
<p><a href="/tables/raw">raw data</a> | <a href="/tables/cleaned">cleaned data</a> |
{{range .Columns}}<a href="/columns/{{.}}">{{.}}</a> | {{end}}<a href="/logs">logs</a></p>
{{range .Figures}}<h2>{{.Title}}</h2><img src="/figures/{{.Name}}" alt="{{.Title}}">
{{end}}
</body></html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	data := struct {
		Source   string
		Rows     int
		LoadedAt string
		Columns  []string
		Figures  interface{}
	}{
		Source:   snap.Source,
		Rows:     snap.Raw.Nrow(),
		LoadedAt: snap.LoadedAt.Format("2006-01-02 15:04:05"),
		Columns:  s.dcfg.CategoryColumns,
		Figures:  snap.Figures.List(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.logger.Error("渲染首页失败: " + err.Error())
	}
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	fig, ok := snap.Figures.Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(fig.PNG)
}

// handleTable 以 CSV 返回原始表或清洗后的表
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	df := snap.Cleaned
	switch chi.URLParam(r, "which") {
	case "raw":
		df = snap.Raw
	case "cleaned":
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := df.WriteCSV(w); err != nil {
		s.logger.Error("输出表格失败: " + err.Error())
	}
}

type columnResponse struct {
	Column string                 `json:"column"`
	Values []string               `json:"values"`
	Counts []processor.ValueCount `json:"counts"`
}

// handleColumn 某列在原始数据中的取值与分布
func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	name := chi.URLParam(r, "name")
	values, err := processor.Unique(snap.Raw, name)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	counts, err := processor.ValueCounts(snap.Raw, name)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, columnResponse{Column: name, Values: values, Counts: counts})
}

type correlationResponse struct {
	Columns []string     `json:"columns"`
	Matrix  [][]*float64 `json:"matrix"` // NaN 输出为 null
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	rows := snap.Correlation.Rows()
	matrix := make([][]*float64, len(rows))
	for i, row := range rows {
		matrix[i] = make([]*float64, len(row))
		for j := range row {
			matrix[i][j] = nullable(row[j])
		}
	}
	render.JSON(w, r, correlationResponse{Columns: snap.Correlation.Names, Matrix: matrix})
}

type describeRow struct {
	Group string   `json:"group"`
	Count int      `json:"count"`
	Valid int      `json:"valid"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q25   *float64 `json:"25%"`
	Q50   *float64 `json:"50%"`
	Q75   *float64 `json:"75%"`
	Max   *float64 `json:"max"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w, r)
	if snap == nil {
		return
	}

	rows := make([]describeRow, 0, len(snap.GenderSummary))
	for _, g := range snap.GenderSummary {
		rows = append(rows, describeRow{
			Group: g.Group,
			Count: g.Count,
			Valid: g.Valid,
			Mean:  nullable(g.Mean),
			Std:   nullable(g.Std),
			Min:   nullable(g.Min),
			Q25:   nullable(g.Q25),
			Q50:   nullable(g.Q50),
			Q75:   nullable(g.Q75),
			Max:   nullable(g.Max),
		})
	}
	render.JSON(w, r, rows)
}

// handleLogs 以 chunked 方式持续推送日志
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// nullable JSON 不支持 NaN
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
