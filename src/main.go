package main

import (
	"GamesAnalysis/src/config"
	"GamesAnalysis/src/dashboard"
	"GamesAnalysis/src/datasource/file"
	"GamesAnalysis/src/pipeline"
	"GamesAnalysis/src/storage"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger.SetConsole(os.Stdout)

	store := &pipeline.Store{}
	refresher := pipeline.NewRefresher(cfg, dcfg, logger, store, os.Stdout)

	// 首次分析失败直接退出
	if _, err := refresher.Refresh(true); err != nil {
		logger.Fatal("分析失败: " + err.Error())
		logger.Close()
		os.Exit(1)
	}

	if !cfg.Watch.Enabled && !cfg.Dashboard.Enabled {
		logger.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var c *cron.Cron

	if cfg.Watch.Enabled {
		c, err = startSchedule(cfg, refresher, logger)
		if err != nil {
			logger.Error("创建定时任务失败: " + err.Error())
			logger.Close()
			os.Exit(1)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			watchFile(ctx, cfg.Data.FilePath, refresher, logger)
		}()
	}

	if cfg.Dashboard.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := dashboard.NewServer(store, dcfg, logger)
			if err := srv.ListenAndServe(ctx, cfg.Dashboard.Addr); err != nil {
				logger.Error("看板服务异常退出: " + err.Error())
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	waitForShutdown(ctx, cancel, sigChan, cfg, refresher, logger)
	signal.Stop(sigChan)
	if c != nil {
		c.Stop()
	}
	wg.Wait()
	logger.Close()
}

// cronSpec 将检查间隔转换为 cron 表达式
func cronSpec(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval.String())
}

// startSchedule 定时检查数据文件与日志大小
func startSchedule(cfg *config.Config, refresher *pipeline.Refresher, logger *storage.Logger) (*cron.Cron, error) {
	c := cron.New()
	spec := cronSpec(time.Duration(cfg.Watch.CheckInterval))

	err := c.AddFunc(spec, func() {
		logger.Debug(fmt.Sprintf("开始定时检查(间隔: %v)...", spec))
		refresh(refresher, logger, false)
		if err := logger.CheckRotate(cfg); err != nil {
			logger.Error("日志轮转失败: " + err.Error())
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info(fmt.Sprintf("数据监控已启动(检查间隔: %v)", spec))
	return c, nil
}

// watchFile 文件变化时立即重新分析，ctx 结束后返回
func watchFile(ctx context.Context, path string, refresher *pipeline.Refresher, logger *storage.Logger) {
	monitor, err := file.NewFileMonitor(path)
	if err != nil {
		logger.Error("创建文件监控失败: " + err.Error())
		return
	}
	defer monitor.Close()

	err = monitor.Watch(ctx, func(string) {
		refresh(refresher, logger, false)
	})
	if err != nil {
		logger.Error("文件监控异常: " + err.Error())
	}
}

func refresh(refresher *pipeline.Refresher, logger *storage.Logger, force bool) {
	updated, err := refresher.Refresh(force)
	if err != nil {
		logger.Error("重新分析失败，保留上一次结果: " + err.Error())
		return
	}
	if updated {
		logger.Info("数据已更新，分析结果已刷新")
	}
}

// waitForShutdown SIGHUP 重新打开日志并强制重新分析，SIGINT/SIGTERM 退出
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, cfg *config.Config, refresher *pipeline.Refresher, logger *storage.Logger) {
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				logger.Info("Received SIGHUP, reloading...")
				if err := logger.Reopen(cfg.LogName); err != nil {
					logger.Error("重新打开日志失败: " + err.Error())
				}
				refresh(refresher, logger, true)
				continue
			}
			logger.Info("Received signal: " + sig.String() + ", shutting down...")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
