package browser

import (
	"runtime"
	"sync"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitorConfig 资源监控配置
type MonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 安全阈值(字节)
	CPULoadThreshold    int   // CPU负载阈值(%), >=200视为禁用检查
	MaxPagesLimit       int   // 绝对最大页面数
	PageMemoryUsage     int64 // 单个页面平均内存消耗(字节)
}

// Monitor 主机资源监控器
// 根据可用内存和CPU负载限制浏览器页面并发,避免探测把主机拖垮
type Monitor struct {
	config MonitorConfig

	// 系统总内存(字节)
	totalMemory uint64

	// 缓存的CalculateMaxPages结果
	cachedMaxPages int
	lastCacheTime  time.Time
	cacheMu        sync.RWMutex
}

// NewMonitor 创建资源监控器
func NewMonitor(config MonitorConfig) *Monitor {
	if config.PageMemoryUsage <= 0 {
		config.PageMemoryUsage = 100 * 1024 * 1024 // 100MB
	}
	if config.SafetyReserveMemory <= 0 {
		config.SafetyReserveMemory = 512 * 1024 * 1024
	}
	if config.SafetyThreshold <= 0 {
		config.SafetyThreshold = 256 * 1024 * 1024
	}
	if config.MaxPagesLimit <= 0 {
		config.MaxPagesLimit = 8
	}

	vmStat, err := mem.VirtualMemory()
	var totalMem uint64
	if err != nil {
		utils.Warnf("获取系统内存失败,使用默认值: %v", err)
		totalMem = 4 * 1024 * 1024 * 1024 // 默认4GB
	} else {
		totalMem = vmStat.Total
		utils.Infof("系统总内存: %.2f GB", float64(totalMem)/(1024*1024*1024))
	}

	return &Monitor{
		config:      config,
		totalMemory: totalMem,
	}
}

// availableMemory 当前可用内存 (扣除进程已分配与安全保留)
func (m *Monitor) availableMemory() int64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return int64(m.totalMemory) - int64(memStats.Alloc) - m.config.SafetyReserveMemory
}

// CalculateMaxPages 动态计算当前允许的最大页面数
// 结果缓存2秒,避免高频探测反复采样
func (m *Monitor) CalculateMaxPages() int {
	m.cacheMu.RLock()
	if time.Since(m.lastCacheTime) < 2*time.Second && m.cachedMaxPages > 0 {
		cached := m.cachedMaxPages
		m.cacheMu.RUnlock()
		return cached
	}
	m.cacheMu.RUnlock()

	available := m.availableMemory()

	// 基于内存计算上限
	maxByMemory := 1
	if available > m.config.SafetyThreshold {
		surplus := available - m.config.SafetyThreshold
		maxByMemory = int(surplus / m.config.PageMemoryUsage)
		if maxByMemory < 1 {
			maxByMemory = 1
		}
	}

	// CPU核心数作为第二上限
	result := maxByMemory
	if cores := runtime.NumCPU(); cores < result {
		result = cores
	}
	if m.config.MaxPagesLimit < result {
		result = m.config.MaxPagesLimit
	}
	if result < 1 {
		result = 1
	}

	m.cacheMu.Lock()
	m.cachedMaxPages = result
	m.lastCacheTime = time.Now()
	m.cacheMu.Unlock()

	return result
}

// CheckResourceAvailability 检查当前资源是否允许新开页面
func (m *Monitor) CheckResourceAvailability() (canCreate bool, reason string) {
	available := m.availableMemory()
	if available < m.config.SafetyThreshold {
		availableMB := available / (1024 * 1024)
		utils.Warnf("可用内存不足(当前%dMB),页面创建受限", availableMB)
		return false, "内存不足"
	}

	// 阈值>=200视为禁用CPU检查
	if m.config.CPULoadThreshold < 200 {
		usage := currentCPUUsage()
		if usage > float64(m.config.CPULoadThreshold) {
			utils.Warnf("CPU负载过高(当前%.1f%%),页面创建受限", usage)
			return false, "CPU负载过高"
		}
	}

	return true, ""
}

// currentCPUUsage 全核平均CPU使用率 (100毫秒采样,避免阻塞过久)
func currentCPUUsage() float64 {
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return 0.0
	}
	return percentages[0]
}
