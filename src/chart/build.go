package chart

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/processor"
	"GamesAnalysis/src/utils"
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot/vg"
)

// Input 生成图表所需的全部数据
type Input struct {
	Raw           dataframe.DataFrame
	Cleaned       dataframe.DataFrame
	Correlation   *processor.CorrMatrix
	GenderSummary []processor.GroupSummary
	DataConfig    *config.DataConfig
}

// Build 按固定顺序生成全部图表。缺数据的图用占位图代替(Figure.Empty)，不视为失败。
func Build(in Input) ([]*Figure, error) {
	dc := in.DataConfig
	var figures []*Figure
	add := func(fig *Figure, err error) error {
		var nd *NoDataError
		if errors.As(err, &nd) {
			fig, err = placeholder(nd.Name, nd.Title)
		}
		if err != nil {
			return err
		}
		figures = append(figures, fig)
		return nil
	}

	// 1. 原始数据中各类别列的分布
	for _, col := range dc.CategoryColumns {
		counts, err := processor.ValueCounts(in.Raw, col)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("raw_%s_distribution", col)
		if err := add(CategoryCounts(name, "Distribution of "+col, counts)); err != nil {
			return nil, err
		}
	}

	// 2. 相关系数热力图
	if err := add(Heatmap("correlation_heatmap", "Correlation matrix", in.Correlation)); err != nil {
		return nil, err
	}

	df := in.Cleaned
	age := df.Col(dc.AgeColumn)
	score := df.Col(dc.ScoreColumn)

	// 3. 年龄分布
	if err := add(Histogram("age_histogram", "Athletes by age", dc.AgeColumn, utils.FiniteValues(age), dc.HistogramBins)); err != nil {
		return nil, err
	}

	// 4. 年龄与成绩
	if err := add(Scatter("age_vs_score", "Age vs "+dc.ScoreColumn, dc.AgeColumn, dc.ScoreColumn, age.Float(), score.Float())); err != nil {
		return nil, err
	}

	// 5. 各组别成绩箱线图
	keys, groups, err := processor.GroupValues(df, dc.DivisionColumn, dc.ScoreColumn)
	if err != nil {
		return nil, err
	}
	width := vg.Length(len(keys)) * vg.Inch
	if width < 12*vg.Inch {
		width = 12 * vg.Inch
	}
	if err := add(BoxByGroup("score_by_division_box", dc.ScoreColumn+" by "+dc.DivisionColumn,
		dc.DivisionColumn, dc.ScoreColumn, keys, groups, width)); err != nil {
		return nil, err
	}

	// 6. 组别人数
	counts, err := processor.ValueCounts(df, dc.DivisionColumn)
	if err != nil {
		return nil, err
	}
	if err := add(CategoryCounts("division_counts", "Athletes by "+dc.DivisionColumn, counts)); err != nil {
		return nil, err
	}

	// 7. 性别人数
	counts, err = processor.ValueCounts(df, dc.GenderColumn)
	if err != nil {
		return nil, err
	}
	if err := add(CategoryCounts("gender_counts", "Athletes by "+dc.GenderColumn, counts)); err != nil {
		return nil, err
	}

	// 8. 性别成绩箱线图
	keys, groups, err = processor.GroupValues(df, dc.GenderColumn, dc.ScoreColumn)
	if err != nil {
		return nil, err
	}
	if err := add(BoxByGroup("score_by_gender_box", dc.ScoreColumn+" by "+dc.GenderColumn,
		dc.GenderColumn, dc.ScoreColumn, keys, groups, 6*vg.Inch)); err != nil {
		return nil, err
	}

	// 9. 性别平均成绩
	if err := add(MeanBars("score_by_gender_mean", "Mean "+dc.ScoreColumn+" by "+dc.GenderColumn,
		dc.GenderColumn, dc.ScoreColumn, in.GenderSummary)); err != nil {
		return nil, err
	}

	return figures, nil
}
