package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Resolve ResolveConfig `mapstructure:"resolve"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Browser BrowserConfig `mapstructure:"browser"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ResolveConfig 链接解析配置
type ResolveConfig struct {
	Timeout int `mapstructure:"timeout"` // 单次解析超时(秒)
}

// ProbeConfig 存活探测配置
type ProbeConfig struct {
	Concurrency        int  `mapstructure:"concurrency"`
	Timeout            int  `mapstructure:"timeout"` // 秒
	BrowserConcurrency int  `mapstructure:"browser_concurrency"`
	BrowserTimeout     int  `mapstructure:"browser_timeout"` // 秒
	EnableBrowser      bool `mapstructure:"enable_browser"`
}

// BrowserConfig 无头浏览器配置
type BrowserConfig struct {
	Headless            bool  `mapstructure:"headless"`
	NavigateTimeout     int   `mapstructure:"navigate_timeout"` // 秒
	MaxPages            int   `mapstructure:"max_pages"`        // <=0时按资源动态计算
	SafetyReserveMemory int64 `mapstructure:"safety_reserve_memory"`
	SafetyThreshold     int64 `mapstructure:"safety_threshold"`
	CPULoadThreshold    int   `mapstructure:"cpu_load_threshold"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".streamcheck"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 解析配置默认值
	v.SetDefault("resolve.timeout", 15)

	// 探测配置默认值
	v.SetDefault("probe.concurrency", 10)
	v.SetDefault("probe.timeout", 15)
	v.SetDefault("probe.browser_concurrency", 3)
	v.SetDefault("probe.browser_timeout", 45)
	v.SetDefault("probe.enable_browser", true)

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigate_timeout", 30)
	v.SetDefault("browser.max_pages", 0)
	v.SetDefault("browser.safety_reserve_memory", 512*1024*1024)
	v.SetDefault("browser.safety_threshold", 256*1024*1024)
	v.SetDefault("browser.cpu_load_threshold", 90)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}
