package pipeline

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/storage"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Store 封装当前快照并提供线程安全访问
type Store struct {
	snap *Snapshot
	mu   sync.RWMutex
}

// Get 获取当前快照(线程安全)，尚未分析时为 nil
func (s *Store) Get() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Set 替换当前快照(线程安全)
func (s *Store) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Refresher 数据文件变化后重新执行完整分析
type Refresher struct {
	cfg     *config.Config
	dcfg    *config.DataConfig
	logger  *storage.Logger
	store   *Store
	out     io.Writer
	mu      sync.Mutex // 保证同一时间只有一次分析
	lastMod time.Time
	stat    func(string) (os.FileInfo, error)
}

func NewRefresher(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, store *Store, out io.Writer) *Refresher {
	return &Refresher{
		cfg:    cfg,
		dcfg:   dcfg,
		logger: logger,
		store:  store,
		out:    out,
		stat:   os.Stat,
	}
}

// Refresh 文件修改时间变化或 force 为 true 时重新分析。
// 返回是否生成了新快照；失败时保留旧快照。
func (r *Refresher) Refresh(force bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, statErr := r.stat(r.cfg.Data.FilePath)
	if statErr != nil && !force {
		return false, fmt.Errorf("读取数据文件信息失败: %w", statErr)
	}
	if statErr == nil && !force && !info.ModTime().After(r.lastMod) {
		return false, nil
	}

	// stat 失败时仍交给加载器，由它返回统一的 ErrFileNotFound
	snap, err := Run(r.cfg, r.dcfg, r.logger, r.out)
	if err != nil {
		return false, err
	}
	if statErr != nil {
		// 文件在第一次 stat 之后才出现
		info, statErr = r.stat(r.cfg.Data.FilePath)
	}
	if statErr == nil {
		r.lastMod = info.ModTime()
	}
	r.store.Set(snap)
	return true, nil
}
