package report

import (
	"GamesAnalysis/src/processor"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// PrintInfo 打印列名、非空数量和类型
func PrintInfo(w io.Writer, title string, rows int, infos []processor.ColumnInfo) {
	fmt.Fprintf(w, "%s: %d 行, %d 列\n", title, rows, len(infos))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Column", "Non-Null", "Dtype"})
	for i, info := range infos {
		table.Append([]string{
			strconv.Itoa(i),
			info.Name,
			strconv.Itoa(info.NonNull),
			info.Type,
		})
	}
	table.Render()
}

// PrintValues 打印某列的不同取值及数量
func PrintValues(w io.Writer, column string, counts []processor.ValueCount) {
	values := make([]string, len(counts))
	for i, c := range counts {
		values[i] = c.Value
	}
	fmt.Fprintf(w, "%s = [%s]\n", column, strings.Join(values, ", "))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{column, "Count"})
	for _, c := range counts {
		table.Append([]string{c.Value, strconv.Itoa(c.Count)})
	}
	table.Render()
}

// PrintDescribe 打印分组描述统计
func PrintDescribe(w io.Writer, group, value string, summaries []processor.GroupSummary) {
	fmt.Fprintf(w, "%s by %s\n", value, group)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{group, "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, s := range summaries {
		table.Append([]string{
			s.Group,
			strconv.Itoa(s.Count),
			formatFloat(s.Mean),
			formatFloat(s.Std),
			formatFloat(s.Min),
			formatFloat(s.Q25),
			formatFloat(s.Q50),
			formatFloat(s.Q75),
			formatFloat(s.Max),
		})
	}
	table.Render()
}

// PrintCorrelation 打印相关系数矩阵
func PrintCorrelation(w io.Writer, corr *processor.CorrMatrix) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{""}, corr.Names...))
	for i, row := range corr.Rows() {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, corr.Names[i])
		for _, v := range row {
			cells = append(cells, formatFloat(v))
		}
		table.Append(cells)
	}
	table.Render()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
