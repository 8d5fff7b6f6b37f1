package core

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigDefaults 无配置文件时回落到默认值
func TestLoadConfigDefaults(t *testing.T) {
	// 不指定路径且搜索路径下无配置文件
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if config.Probe.Concurrency != 10 {
		t.Errorf("probe.concurrency = %d, 期望 10", config.Probe.Concurrency)
	}
	if config.Probe.BrowserConcurrency != 3 {
		t.Errorf("probe.browser_concurrency = %d, 期望 3", config.Probe.BrowserConcurrency)
	}
	if !config.Probe.EnableBrowser {
		t.Error("probe.enable_browser 默认应为true")
	}
	if !config.Browser.Headless {
		t.Error("browser.headless 默认应为true")
	}
	if config.Logging.Level != "info" {
		t.Errorf("logging.level = %q, 期望 info", config.Logging.Level)
	}
	if config.Resolve.Timeout != 15 {
		t.Errorf("resolve.timeout = %d, 期望 15", config.Resolve.Timeout)
	}
}

// TestLoadConfigFile 配置文件覆盖默认值
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
probe:
  concurrency: 25
  enable_browser: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Probe.Concurrency != 25 {
		t.Errorf("probe.concurrency = %d, 期望 25", config.Probe.Concurrency)
	}
	if config.Probe.EnableBrowser {
		t.Error("probe.enable_browser 应被覆盖为false")
	}
	if config.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, 期望 debug", config.Logging.Level)
	}

	// 未覆盖的键保持默认值
	if config.Probe.BrowserConcurrency != 3 {
		t.Errorf("probe.browser_concurrency = %d, 期望默认值 3", config.Probe.BrowserConcurrency)
	}
}
