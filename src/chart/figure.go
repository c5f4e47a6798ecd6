package chart

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData 图表没有可画的数据
var ErrNoData = errors.New("没有数据")

// NoDataError 记录哪张图缺数据，Build 用它生成占位图
type NoDataError struct {
	Name  string
	Title string
}

func noData(name, title string) error {
	return &NoDataError{Name: name, Title: title}
}

func (e *NoDataError) Error() string { return e.Name + ": " + ErrNoData.Error() }

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// Figure 一张待渲染的图
type Figure struct {
	Name   string // 唯一标识，也用作文件名/URL
	Title  string
	Width  vg.Length
	Height vg.Length
	Plot   *plot.Plot
	Empty  bool // 没有数据，只是占位
}

func newFigure(name, title string, width, height vg.Length) *Figure {
	p := plot.New()
	p.Title.Text = title
	return &Figure{
		Name:   name,
		Title:  title,
		Width:  width,
		Height: height,
		Plot:   p,
	}
}

// placeholder 隐藏坐标轴，居中标注 "no data"
func placeholder(name, title string) (*Figure, error) {
	fig := newFigure(name, title, 6*vg.Inch, 4*vg.Inch)
	fig.Empty = true

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0, Y: 0}},
		Labels: []string{"no data"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	labels.TextStyle[0].XAlign = draw.XCenter
	labels.TextStyle[0].YAlign = draw.YCenter

	fig.Plot.Add(labels)
	fig.Plot.HideAxes()
	return fig, nil
}

// PNG 把图渲染成 PNG 字节
func (f *Figure) PNG() ([]byte, error) {
	wt, err := f.Plot.WriterTo(f.Width, f.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("渲染 %s 失败: %w", f.Name, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("渲染 %s 失败: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

// Sink 接收渲染结果的显示端
type Sink interface {
	Render(fig *Figure) error
}

// Rendered 已渲染的图
type Rendered struct {
	Name  string
	Title string
	PNG   []byte
}

// MemorySink 在内存中保存 PNG，按渲染顺序返回
type MemorySink struct {
	mu      sync.RWMutex
	order   []string
	figures map[string]Rendered
}

func NewMemorySink() *MemorySink {
	return &MemorySink{figures: make(map[string]Rendered)}
}

func (s *MemorySink) Render(fig *Figure) error {
	data, err := fig.PNG()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.figures[fig.Name]; !ok {
		s.order = append(s.order, fig.Name)
	}
	s.figures[fig.Name] = Rendered{Name: fig.Name, Title: fig.Title, PNG: data}
	return nil
}

// Get 按名称取图
func (s *MemorySink) Get(name string) (Rendered, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.figures[name]
	return r, ok
}

// List 按渲染顺序返回全部图
func (s *MemorySink) List() []Rendered {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rendered, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.figures[name])
	}
	return out
}

// RenderAll 依次渲染，遇到错误立即返回
func RenderAll(sink Sink, figures []*Figure) error {
	for _, fig := range figures {
		if err := sink.Render(fig); err != nil {
			return err
		}
	}
	return nil
}
