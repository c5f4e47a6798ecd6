// data.go
package processor

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/storage"
	"GamesAnalysis/src/utils"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrMissingColumn 投影时缺少必需列
var ErrMissingColumn = errors.New("missing column")

// DataProcessor 负责投影、性别补全与编码
type DataProcessor struct {
	raw        dataframe.DataFrame
	df         dataframe.DataFrame
	dcfg       *config.DataConfig
	logger     *storage.Logger
	unresolved int
}

// NewDataProcessor logger 可以为 nil
func NewDataProcessor(raw dataframe.DataFrame, dcfg *config.DataConfig, logger *storage.Logger) *DataProcessor {
	return &DataProcessor{
		raw:    raw,
		df:     raw,
		dcfg:   dcfg,
		logger: logger,
	}
}

// Raw 返回加载时的原始表
func (p *DataProcessor) Raw() dataframe.DataFrame {
	return p.raw
}

// Cleaned 返回当前处理结果
func (p *DataProcessor) Cleaned() dataframe.DataFrame {
	return p.df
}

// Unresolved 返回编码后仍不是 0/1 的行数
func (p *DataProcessor) Unresolved() int {
	return p.unresolved
}

// CleanData 依次执行投影、补全、编码
func (p *DataProcessor) CleanData() error {
	if err := p.Select(); err != nil {
		return err
	}
	p.ImputeGender()
	p.RecodeGender()
	return nil
}

// Select 只保留配置中的列
func (p *DataProcessor) Select() error {
	for _, col := range p.dcfg.Columns {
		if !utils.HasColumn(p.raw, col) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	df := p.raw.Select(p.dcfg.Columns)
	if df.Err != nil {
		return fmt.Errorf("选择列失败: %w", df.Err)
	}
	p.df = df
	return nil
}

// ImputeGender 按 division 子串重新确定性别标签(区分大小写)。
// 先匹配男子组再匹配女子组，两者都不匹配的行保持原值。
func (p *DataProcessor) ImputeGender() {
	genders := p.df.Col(p.dcfg.GenderColumn).Records()
	divisions := p.df.Col(p.dcfg.DivisionColumn).Records()

	filled := 0
	for i := range genders {
		before := genders[i]
		if strings.Contains(divisions[i], p.dcfg.MaleMarker) {
			genders[i] = p.dcfg.MaleLabel
		}
		if strings.Contains(divisions[i], p.dcfg.FemaleMarker) {
			genders[i] = p.dcfg.FemaleLabel
		}
		if before == p.dcfg.Sentinel && genders[i] != before {
			filled++
		}
	}

	p.df = p.df.Mutate(series.New(genders, series.String, p.dcfg.GenderColumn))
	p.logf(storage.INFO, "根据 division 补全性别 %d 行", filled)
}

// RecodeGender 把性别标签映射为整数编码。全部映射成功时该列为 Int；
// 否则保持 String，未知值原样保留。
func (p *DataProcessor) RecodeGender() {
	genders := p.df.Col(p.dcfg.GenderColumn).Records()

	codes := make([]int, len(genders))
	mixed := make([]string, len(genders))
	p.unresolved = 0
	for i, g := range genders {
		if code, ok := p.dcfg.GenderCode(g); ok {
			codes[i] = code
			mixed[i] = strconv.Itoa(code)
			continue
		}
		mixed[i] = g
		p.unresolved++
	}

	if p.unresolved == 0 {
		p.df = p.df.Mutate(series.New(codes, series.Int, p.dcfg.GenderColumn))
		return
	}

	p.df = p.df.Mutate(series.New(mixed, series.String, p.dcfg.GenderColumn))
	p.logf(storage.WARNING, "%d 行性别无法从 division 推断，保留原值", p.unresolved)
}

// ColumnInfo 对应一列的概要信息
type ColumnInfo struct {
	Name    string `json:"name"`
	NonNull int    `json:"non_null"`
	Type    string `json:"type"`
}

// Info 返回每列的非空数量和类型
func Info(df dataframe.DataFrame) []ColumnInfo {
	infos := make([]ColumnInfo, 0, df.Ncol())
	for _, name := range df.Names() {
		col := df.Col(name)
		nonNull := 0
		for _, na := range col.IsNaN() {
			if !na {
				nonNull++
			}
		}
		infos = append(infos, ColumnInfo{
			Name:    name,
			NonNull: nonNull,
			Type:    string(col.Type()),
		})
	}
	return infos
}

// ValueCount 某个取值及其出现次数
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts 按首次出现顺序统计取值
func ValueCounts(df dataframe.DataFrame, column string) ([]ValueCount, error) {
	if !utils.HasColumn(df, column) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}

	index := make(map[string]int)
	var counts []ValueCount
	for _, v := range df.Col(column).Records() {
		i, ok := index[v]
		if !ok {
			i = len(counts)
			index[v] = i
			counts = append(counts, ValueCount{Value: v})
		}
		counts[i].Count++
	}
	return counts, nil
}

// Unique 按首次出现顺序返回不同取值
func Unique(df dataframe.DataFrame, column string) ([]string, error) {
	counts, err := ValueCounts(df, column)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(counts))
	for i, c := range counts {
		values[i] = c.Value
	}
	return values, nil
}

func (p *DataProcessor) logf(level storage.LogLevel, format string, args ...interface{}) {
	if p.logger == nil {
		return
	}
	p.logger.Log(level, fmt.Sprintf(format, args...))
}
