package pipeline

import (
	"GamesAnalysis/src/chart"
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/datasource/file"
	"GamesAnalysis/src/processor"
	"GamesAnalysis/src/report"
	"GamesAnalysis/src/storage"
	"fmt"
	"io"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Snapshot 一次完整分析的结果，生成后只读
type Snapshot struct {
	Source        string
	LoadedAt      time.Time
	Raw           dataframe.DataFrame
	Cleaned       dataframe.DataFrame
	RawInfo       []processor.ColumnInfo
	CleanedInfo   []processor.ColumnInfo
	Correlation   *processor.CorrMatrix
	GenderSummary []processor.GroupSummary
	Unresolved    int
	Figures       *chart.MemorySink
}

// Run 加载 -> 清洗 -> 统计 -> 绘图 -> 打印报告。任何一步失败都直接返回。
// out 为 nil 时不打印报告。
func Run(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, out io.Writer) (*Snapshot, error) {
	t1 := time.Now()

	// 1. 加载数据
	raw, err := file.ReadToDataFrame(cfg.Data.FilePath, cfg.Data.SheetName, cfg.Data.Encoding)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("已加载 %s: %d 行 %d 列", cfg.Data.FilePath, raw.Nrow(), raw.Ncol()))

	// 2. 清洗
	p := processor.NewDataProcessor(raw, dcfg, logger)
	if err := p.CleanData(); err != nil {
		return nil, err
	}
	cleaned := p.Cleaned()

	// 3. 统计
	corr, err := processor.Correlation(cleaned)
	if err != nil {
		return nil, fmt.Errorf("计算相关系数失败: %w", err)
	}
	summary, err := processor.GroupDescribe(cleaned, dcfg.GenderColumn, dcfg.ScoreColumn)
	if err != nil {
		return nil, fmt.Errorf("分组统计失败: %w", err)
	}

	snap := &Snapshot{
		Source:        cfg.Data.FilePath,
		LoadedAt:      time.Now(),
		Raw:           raw,
		Cleaned:       cleaned,
		RawInfo:       processor.Info(raw),
		CleanedInfo:   processor.Info(cleaned),
		Correlation:   corr,
		GenderSummary: summary,
		Unresolved:    p.Unresolved(),
		Figures:       chart.NewMemorySink(),
	}

	// 4. 绘图
	figures, err := chart.Build(chart.Input{
		Raw:           raw,
		Cleaned:       cleaned,
		Correlation:   corr,
		GenderSummary: summary,
		DataConfig:    dcfg,
	})
	if err != nil {
		return nil, fmt.Errorf("生成图表失败: %w", err)
	}
	for _, fig := range figures {
		if fig.Empty {
			logger.Warning(fmt.Sprintf("%s 没有可用数据，使用占位图", fig.Name))
		}
	}
	if err := chart.RenderAll(snap.Figures, figures); err != nil {
		return nil, err
	}

	// 5. 报告
	if out != nil {
		if err := printReport(out, snap, dcfg); err != nil {
			return nil, err
		}
	}

	logger.Info(fmt.Sprintf("分析完成，生成 %d 张图，耗时 %v", len(figures), time.Since(t1)))
	return snap, nil
}

func printReport(out io.Writer, snap *Snapshot, dcfg *config.DataConfig) error {
	report.PrintInfo(out, "raw", snap.Raw.Nrow(), snap.RawInfo)
	for _, col := range dcfg.CategoryColumns {
		counts, err := processor.ValueCounts(snap.Raw, col)
		if err != nil {
			return err
		}
		report.PrintValues(out, col, counts)
	}
	report.PrintInfo(out, "cleaned", snap.Cleaned.Nrow(), snap.CleanedInfo)
	report.PrintCorrelation(out, snap.Correlation)
	report.PrintDescribe(out, dcfg.GenderColumn, dcfg.ScoreColumn, snap.GenderSummary)
	return nil
}
