package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/browser"
	"github.com/RecoveryAshes/streamcheck/internal/core"
	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/probe"
	"github.com/RecoveryAshes/streamcheck/internal/resolvers"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers []string // 自定义HTTP请求头

	// 输入参数
	urlFile string

	// 探测参数
	concurrency   int
	enableBrowser bool
	headless      bool

	// PersistentPreRunE加载后的有效配置
	appConfig *core.Config
)

var rootCmd = &cobra.Command{
	Use:   "streamcheck",
	Short: "托管站视频链接解析与存活检测工具",
	Long: `StreamCheck - 托管站视频链接解析与存活检测工具 (Go版本)

这是一个专门用于托管站嵌入链接处理的工具,支持:
  • 25+同构托管站的通用解析
  • 六类混淆格式的专属解析器
  • 两阶段存活探测(HTTP + 无头浏览器)
  • 临时凭证自动签发与缓存
  • 批量URL处理
  • 自定义HTTP请求头

使用示例:
  # 解析单条链接
  streamcheck resolve https://voe.sx/e/abc123def

  # 批量存活探测
  streamcheck probe -f urls.txt

  # 自定义HTTP头部
  streamcheck resolve -H "Cookie: lang=en" https://dood.to/e/xyz789

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [url...]",
	Short: "解析托管站嵌入链接为视频直链",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := collectURLs(args)
		if err != nil {
			return err
		}

		setupSignalHandler(nil)

		client := newClient()
		registry, err := resolvers.NewRegistry(client)
		if err != nil {
			return fmt.Errorf("创建解析器注册表失败: %w", err)
		}

		ctx := context.Background()
		resolved := 0
		for _, rawURL := range urls {
			stream := registry.ResolveURL(ctx, rawURL)
			if stream == nil {
				fmt.Printf("❌ %s\n", rawURL)
				continue
			}
			resolved++
			fmt.Printf("✅ %s\n", rawURL)
			fmt.Printf("   直链: %s\n", stream.VideoURL)
			if stream.Quality != models.QualityUnknown {
				fmt.Printf("   画质: %s\n", stream.Quality)
			}
			if stream.IsHLS {
				fmt.Println("   格式: HLS")
			}
			for name, value := range stream.ExtraHeaders {
				fmt.Printf("   头部: %s: %s\n", name, utils.RedactToken(value))
			}
		}

		fmt.Println("\n==================================================")
		fmt.Println("📊 解析统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 成功: %d\n", resolved)
		fmt.Printf("❌ 失败: %d\n", len(urls)-resolved)
		fmt.Println("==================================================")

		utils.Info("✨ 解析任务完成!")
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [url...]",
	Short: "批量检测链接存活状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := collectURLs(args)
		if err != nil {
			return err
		}

		// 浏览器池惰性启动,这里只准备好配置
		var pool *browser.Pool
		var browserProber probe.BrowserProber
		if enableBrowser && appConfig.Probe.EnableBrowser {
			monitor := browser.NewMonitor(browser.MonitorConfig{
				SafetyReserveMemory: appConfig.Browser.SafetyReserveMemory,
				SafetyThreshold:     appConfig.Browser.SafetyThreshold,
				CPULoadThreshold:    appConfig.Browser.CPULoadThreshold,
				MaxPagesLimit:       appConfig.Browser.MaxPages,
			})
			pool = browser.NewPool(browser.Config{
				Headless:        headless,
				NavigateTimeout: time.Duration(appConfig.Browser.NavigateTimeout) * time.Second,
				MaxPages:        appConfig.Browser.MaxPages,
				Monitor:         monitor,
			})
			defer pool.Cleanup()
			browserProber = pool
		}

		setupSignalHandler(pool)

		probeConcurrency := appConfig.Probe.Concurrency
		if concurrency > 0 {
			probeConcurrency = concurrency
		}

		bar := utils.NewProgressBar(len(urls), "存活探测")

		prober := probe.NewProber(probe.Options{
			Concurrency:        probeConcurrency,
			Timeout:            time.Duration(appConfig.Probe.Timeout) * time.Second,
			BrowserConcurrency: appConfig.Probe.BrowserConcurrency,
			BrowserTimeout:     time.Duration(appConfig.Probe.BrowserTimeout) * time.Second,
			Browser:            browserProber,
			OnProbed: func(item probe.Item, outcome models.ProbeOutcome) {
				_ = bar.Add(1)
			},
		})

		items := make([]probe.Item, 0, len(urls))
		for i, rawURL := range urls {
			items = append(items, probe.Item{Index: i, URL: rawURL})
		}

		alive := prober.ProbeBatch(context.Background(), items)
		_ = bar.Finish()

		fmt.Println("\n==================================================")
		fmt.Println("📊 探测统计")
		fmt.Println("==================================================")
		for i, rawURL := range urls {
			if _, ok := alive[i]; ok {
				fmt.Printf("✅ 存活  %s\n", rawURL)
			} else {
				fmt.Printf("❌ 失效  %s\n", rawURL)
			}
		}
		fmt.Printf("\n存活: %d/%d\n", len(alive), len(urls))
		fmt.Println("==================================================")

		utils.Info("✨ 探测任务完成!")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "显示当前有效配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("当前有效配置:")
		fmt.Printf("  resolve.timeout: %d秒\n", appConfig.Resolve.Timeout)
		fmt.Printf("  probe.concurrency: %d\n", appConfig.Probe.Concurrency)
		fmt.Printf("  probe.timeout: %d秒\n", appConfig.Probe.Timeout)
		fmt.Printf("  probe.browser_concurrency: %d\n", appConfig.Probe.BrowserConcurrency)
		fmt.Printf("  probe.browser_timeout: %d秒\n", appConfig.Probe.BrowserTimeout)
		fmt.Printf("  probe.enable_browser: %v\n", appConfig.Probe.EnableBrowser)
		fmt.Printf("  browser.headless: %v\n", appConfig.Browser.Headless)
		fmt.Printf("  browser.navigate_timeout: %d秒\n", appConfig.Browser.NavigateTimeout)
		fmt.Printf("  browser.max_pages: %d\n", appConfig.Browser.MaxPages)
		fmt.Printf("  browser.cpu_load_threshold: %d%%\n", appConfig.Browser.CPULoadThreshold)
		fmt.Printf("  logging.level: %s\n", appConfig.Logging.Level)
		fmt.Printf("  logging.log_dir: %s\n", appConfig.Logging.LogDir)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("StreamCheck %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 托管站链接解析与存活检测工具")
	},
}

// collectURLs 合并位置参数与-f文件里的URL
func collectURLs(args []string) ([]string, error) {
	urls := append([]string{}, args...)

	if urlFile != "" {
		fromFile, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return nil, fmt.Errorf("读取URL文件失败: %w", err)
		}
		urls = append(urls, fromFile...)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("未提供任何URL (位置参数或 --url-file)")
	}

	for _, rawURL := range urls {
		if err := utils.ValidateURL(rawURL); err != nil {
			return nil, fmt.Errorf("非法URL %q: %w", rawURL, err)
		}
	}
	return urls, nil
}

// newClient 创建带-H头部的共享HTTP客户端
func newClient() *fetch.Client {
	client := fetch.NewClient(time.Duration(appConfig.Resolve.Timeout) * time.Second)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			utils.Warnf("忽略格式错误的头部参数: %q", header)
			continue
		}
		client.SetExtraHeader(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	return client
}

// setupSignalHandler 设置信号处理(Ctrl+C优雅退出)
func setupSignalHandler(pool *browser.Pool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
		if pool != nil {
			pool.Cleanup()
		}
		os.Exit(0)
	}()
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")

	// 探测参数
	probeCmd.Flags().IntVar(&concurrency, "concurrency", 0, "HTTP探测并发数 (0使用配置值)")
	probeCmd.Flags().BoolVar(&enableBrowser, "browser", true, "启用浏览器升级探测")
	probeCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")

	// 添加子命令
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
