package chart

import (
	"GamesAnalysis/src/processor"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// CategoryCounts 每个取值一根横向柱，标签按首次出现顺序自上而下排列
func CategoryCounts(name, title string, counts []processor.ValueCount) (*Figure, error) {
	if len(counts) == 0 {
		return nil, noData(name, title)
	}

	n := len(counts)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, c := range counts {
		values[n-1-i] = float64(c.Count)
		labels[n-1-i] = c.Value
	}

	fig := newFigure(name, title, 18*vg.Inch, 6*vg.Inch)
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	bars.Horizontal = true
	bars.Color = barColor

	fig.Plot.Add(bars)
	fig.Plot.NominalY(labels...)
	fig.Plot.X.Label.Text = "Count"
	fig.Plot.X.Min = 0
	return fig, nil
}

// Histogram 连续变量直方图
func Histogram(name, title, column string, values []float64, bins int) (*Figure, error) {
	if len(values) == 0 {
		return nil, noData(name, title)
	}

	fig := newFigure(name, title, 18*vg.Inch, 6*vg.Inch)
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	fig.Plot.Add(h)
	fig.Plot.X.Label.Text = column
	fig.Plot.Y.Label.Text = "Count"
	return fig, nil
}

// Scatter 两列的散点图，忽略任一坐标缺失的点
func Scatter(name, title, xName, yName string, xs, ys []float64) (*Figure, error) {
	points := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		points = append(points, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(points) == 0 {
		return nil, noData(name, title)
	}

	fig := newFigure(name, title, 6*vg.Inch, 6*vg.Inch)
	s, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)

	fig.Plot.Add(s, plotter.NewGrid())
	fig.Plot.X.Label.Text = xName
	fig.Plot.Y.Label.Text = yName
	return fig, nil
}

// BoxByGroup 每个分组一个箱线图，空分组只保留刻度
func BoxByGroup(name, title, groupName, valueName string, keys []string, groups map[string][]float64, width vg.Length) (*Figure, error) {
	if len(keys) == 0 {
		return nil, noData(name, title)
	}

	fig := newFigure(name, title, width, 6*vg.Inch)
	for i, k := range keys {
		values := finite(groups[k])
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(values))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fig.Plot.Add(box)
	}

	fig.Plot.NominalX(keys...)
	fig.Plot.X.Label.Text = groupName
	fig.Plot.Y.Label.Text = valueName
	return fig, nil
}

var barColor = color.RGBA{R: 76, G: 114, B: 176, A: 255}

// meanBars 为误差线提供柱顶坐标和对称误差
type meanBars struct {
	xys  plotter.XYs
	errs []float64
}

func (m meanBars) Len() int                        { return len(m.xys) }
func (m meanBars) XY(i int) (float64, float64)     { return m.xys[i].X, m.xys[i].Y }
func (m meanBars) YError(i int) (float64, float64) { return m.errs[i], m.errs[i] }

// MeanBars 各分组均值柱状图，误差线为 95% 置信区间
func MeanBars(name, title, groupName, valueName string, summaries []processor.GroupSummary) (*Figure, error) {
	if len(summaries) == 0 {
		return nil, noData(name, title)
	}

	n := len(summaries)
	means := make(plotter.Values, n)
	data := meanBars{xys: make(plotter.XYs, n), errs: make([]float64, n)}
	labels := make([]string, n)
	for i, s := range summaries {
		labels[i] = s.Group
		mean := s.Mean
		if math.IsNaN(mean) {
			mean = 0
		}
		ci := 0.0
		if s.Valid > 1 && !math.IsNaN(s.Std) {
			ci = 1.96 * s.Std / math.Sqrt(float64(s.Valid))
		}
		means[i] = mean
		data.xys[i] = plotter.XY{X: float64(i), Y: mean}
		data.errs[i] = ci
	}

	fig := newFigure(name, title, 6*vg.Inch, 6*vg.Inch)
	bars, err := plotter.NewBarChart(means, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	bars.Color = barColor
	errBars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	fig.Plot.Add(bars, errBars)
	fig.Plot.NominalX(labels...)
	fig.Plot.X.Label.Text = groupName
	fig.Plot.Y.Label.Text = valueName
	fig.Plot.Y.Min = 0
	return fig, nil
}

// corrGrid 把相关矩阵适配为 plotter.GridXYZ，矩阵第 0 行画在最上方
type corrGrid struct {
	rows [][]float64
}

func (g corrGrid) Dims() (c, r int) { return len(g.rows), len(g.rows) }
func (g corrGrid) Z(c, r int) float64 {
	return g.rows[len(g.rows)-1-r][c]
}
func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// Heatmap 相关系数热力图，每个格子标注数值
func Heatmap(name, title string, corr *processor.CorrMatrix) (*Figure, error) {
	n := len(corr.Names)
	if n < 2 {
		return nil, noData(name, title)
	}

	grid := corrGrid{rows: corr.Rows()}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	h := plotter.NewHeatMap(grid, cm.Palette(255))
	h.Min, h.Max = -1, 1

	var (
		xys  plotter.XYs
		text []string
	)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			text = append(text, formatCoef(grid.Z(c, r)))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}

	yNames := make([]string, n)
	for i, col := range corr.Names {
		yNames[n-1-i] = col
	}

	fig := newFigure(name, title, 9*vg.Inch, 6*vg.Inch)
	fig.Plot.Add(h, labels)
	fig.Plot.NominalX(corr.Names...)
	fig.Plot.NominalY(yNames...)
	return fig, nil
}

func formatCoef(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
