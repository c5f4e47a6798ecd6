package config

import (
	"GamesAnalysis/src/utils"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Data struct {
		FilePath  string `json:"file_path"`  // 运动员数据文件(.csv/.xlsx)
		SheetName string `json:"sheet_name"` // xlsx 工作表名称
		Encoding  string `json:"encoding"`   // 文本编码: utf-8 / latin1 / windows-1252 / gbk
	} `json:"data"`

	Dashboard struct {
		Enabled bool   `json:"enabled"`
		Addr    string `json:"addr"` // 监听地址，例如 ":8080"
	} `json:"dashboard"`

	Watch struct {
		Enabled       bool     `json:"enabled"`        // 数据文件变化后是否重新分析
		CheckInterval Duration `json:"check_interval"` // 定时检查间隔
	} `json:"watch"`

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
}

// DataConfig 描述数据列及性别清洗规则
type DataConfig struct {
	Columns         []string       `json:"columns"` // 保留的列
	DivisionColumn  string         `json:"division_column"`
	GenderColumn    string         `json:"gender_column"`
	AgeColumn       string         `json:"age_column"`
	ScoreColumn     string         `json:"score_column"`
	Sentinel        string         `json:"sentinel"`      // 未登记性别的占位值
	MaleMarker      string         `json:"male_marker"`   // division 中表示男子组的子串
	FemaleMarker    string         `json:"female_marker"` // division 中表示女子组的子串
	MaleLabel       string         `json:"male_label"`
	FemaleLabel     string         `json:"female_label"`
	GenderCodes     map[string]int `json:"gender_codes"`
	CategoryColumns []string       `json:"category_columns"` // 分布选择器可选的列
	HistogramBins   int            `json:"histogram_bins"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

// LoadConfig 只加载一次配置，后续调用返回同一份实例
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	if err := dcfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("数据配置无效: %w", err)
	}

	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

// parseDataConfig 在默认列映射之上覆盖 JSON 中出现的字段
func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := DefaultDataConfig()
	defaults := dcfg.GenderCodes
	// json 会把 map 合并进已有值，gender_codes 需要整体替换
	dcfg.GenderCodes = nil
	if err := json.Unmarshal(data, dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	if dcfg.GenderCodes == nil {
		dcfg.GenderCodes = defaults
	}
	resultChan <- dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func (c *Config) applyDefaults() {
	if c.Data.Encoding == "" {
		c.Data.Encoding = "utf-8"
	}
	if c.Dashboard.Addr == "" {
		c.Dashboard.Addr = ":8080"
	}
	if c.Watch.CheckInterval <= 0 {
		c.Watch.CheckInterval = Duration(time.Minute)
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
}

// DefaultDataConfig 返回 2019 Games 运动员数据集的列映射
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		Columns:         []string{"division", "age", "gender", "height", "weight", "overallscore"},
		DivisionColumn:  "division",
		GenderColumn:    "gender",
		AgeColumn:       "age",
		ScoreColumn:     "overallscore",
		Sentinel:        "X",
		MaleMarker:      "Men",
		FemaleMarker:    "Women",
		MaleLabel:       "M",
		FemaleLabel:     "W",
		GenderCodes:     map[string]int{"M": 0, "W": 1},
		CategoryColumns: []string{"gender", "division"},
		HistogramBins:   20,
	}
}

// Validate 检查性别规则是否自洽
func (dc *DataConfig) Validate() error {
	if dc.MaleLabel == "" || dc.FemaleLabel == "" {
		return fmt.Errorf("male_label/female_label 不能为空")
	}
	if dc.MaleMarker == "" || dc.FemaleMarker == "" {
		return fmt.Errorf("male_marker/female_marker 不能为空")
	}
	male, ok := dc.GenderCodes[dc.MaleLabel]
	if !ok {
		return fmt.Errorf("gender_codes 缺少 %q", dc.MaleLabel)
	}
	female, ok := dc.GenderCodes[dc.FemaleLabel]
	if !ok {
		return fmt.Errorf("gender_codes 缺少 %q", dc.FemaleLabel)
	}
	if male == female {
		return fmt.Errorf("男女编码不能相同: %d", male)
	}
	if len(dc.GenderCodes) != 2 {
		return fmt.Errorf("gender_codes 只能包含 %q 和 %q", dc.MaleLabel, dc.FemaleLabel)
	}
	for _, col := range []string{dc.DivisionColumn, dc.GenderColumn, dc.AgeColumn, dc.ScoreColumn} {
		if !utils.Contains(dc.Columns, col) {
			return fmt.Errorf("列 %q 不在 columns 中", col)
		}
	}
	if dc.HistogramBins <= 0 {
		return fmt.Errorf("histogram_bins 必须为正数")
	}
	return nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// GenderCode 返回性别标签对应的编码
func (dc *DataConfig) GenderCode(label string) (int, bool) {
	mu.RLock()
	defer mu.RUnlock()
	code, ok := dc.GenderCodes[label]
	return code, ok
}

func (dc *DataConfig) SetGenderCode(label string, code int) {
	mu.Lock()
	defer mu.Unlock()
	if dc.GenderCodes == nil {
		dc.GenderCodes = make(map[string]int)
	}
	dc.GenderCodes[label] = code
}
