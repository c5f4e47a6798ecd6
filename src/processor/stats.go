// stats.go
package processor

import (
	"GamesAnalysis/src/utils"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix 数值列之间的皮尔逊相关系数
type CorrMatrix struct {
	Names  []string
	Values *mat.SymDense
}

// At 按列名取相关系数
func (c *CorrMatrix) At(a, b string) (float64, bool) {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return c.Values.At(i, j), true
}

func (c *CorrMatrix) index(name string) int {
	for i, n := range c.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Rows 以二维切片形式返回矩阵，NaN 保留
func (c *CorrMatrix) Rows() [][]float64 {
	n := len(c.Names)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = c.Values.At(i, j)
		}
	}
	return rows
}

// NumericColumns 返回 Int/Float 类型的列名
func NumericColumns(df dataframe.DataFrame) []string {
	var names []string
	for _, name := range df.Names() {
		if utils.IsNumeric(df.Col(name)) {
			names = append(names, name)
		}
	}
	return names
}

// Correlation 对数值列两两计算相关系数，每一对只使用两列都不缺失的行。
// 对角线固定为 1；样本不足或方差为 0 的组合为 NaN。
func Correlation(df dataframe.DataFrame) (*CorrMatrix, error) {
	names := NumericColumns(df)
	if len(names) == 0 {
		return nil, fmt.Errorf("没有可计算相关性的数值列")
	}

	columns := make([][]float64, len(names))
	for i, name := range names {
		columns[i] = df.Col(name).Float()
	}

	n := len(names)
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, pairwiseCorrelation(columns[i], columns[j]))
		}
	}

	return &CorrMatrix{Names: names, Values: m}, nil
}

func pairwiseCorrelation(a, b []float64) float64 {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// GroupSummary 某一分组的描述性统计
type GroupSummary struct {
	Group string  `json:"group"`
	Count int     `json:"count"` // 分组行数
	Valid int     `json:"valid"` // 参与统计的非缺失值个数
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// GroupValues 按 group 列分组收集 value 列，返回排序后的分组键
func GroupValues(df dataframe.DataFrame, group, value string) ([]string, map[string][]float64, error) {
	for _, col := range []string{group, value} {
		if !utils.HasColumn(df, col) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	keys := df.Col(group).Records()
	values := df.Col(value).Float()

	groups := make(map[string][]float64)
	var order []string
	for i, k := range keys {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
			groups[k] = nil
		}
		groups[k] = append(groups[k], values[i])
	}

	utils.SortKeys(order)
	return order, groups, nil
}

// GroupDescribe 对 value 列按 group 分组做描述统计
func GroupDescribe(df dataframe.DataFrame, group, value string) ([]GroupSummary, error) {
	keys, groups, err := GroupValues(df, group, value)
	if err != nil {
		return nil, err
	}

	summaries := make([]GroupSummary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, describe(k, groups[k]))
	}
	return summaries, nil
}

func describe(group string, raw []float64) GroupSummary {
	s := GroupSummary{Group: group, Count: len(raw)}

	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	s.Valid = len(values)

	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(values)
	s.Mean = stat.Mean(values, nil)
	s.Std = math.NaN()
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min = values[0]
	s.Max = values[len(values)-1]
	s.Q25 = quantile(values, 0.25)
	s.Q50 = quantile(values, 0.50)
	s.Q75 = quantile(values, 0.75)
	return s
}

// quantile 对已排序数据做线性插值，位置为 p*(n-1)
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
