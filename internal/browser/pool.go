package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config 浏览器池配置
type Config struct {
	Headless        bool
	NavigateTimeout time.Duration

	// MaxPages <=0 时按主机资源动态计算
	MaxPages int

	Monitor *Monitor
}

// Pool 惰性无头浏览器池
// 首次探测时才启动浏览器进程;所有页面共享一个隐身上下文,
// 探测页面注入反检测脚本规避指纹识别
type Pool struct {
	cfg Config

	mu        sync.Mutex
	started   bool
	launch    *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	pageSem   chan struct{}
	cleanedUp bool
}

// NewPool 创建浏览器池 (不启动浏览器)
func NewPool(cfg Config) *Pool {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	return &Pool{cfg: cfg}
}

// ensureStarted 双重检查的惰性启动
func (p *Pool) ensureStarted() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	utils.Infof("🌐 启动无头浏览器 (headless=%v)", p.cfg.Headless)

	l := launcher.New().
		Headless(p.cfg.Headless).
		Set("ignore-certificate-errors").
		Set("disable-gpu").
		Set("no-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return err
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return err
	}

	incognito, err := b.Incognito()
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return err
	}

	maxPages := p.cfg.MaxPages
	if maxPages <= 0 && p.cfg.Monitor != nil {
		maxPages = p.cfg.Monitor.CalculateMaxPages()
	}
	if maxPages <= 0 {
		maxPages = 3
	}

	p.launch = l
	p.browser = b
	p.incognito = incognito
	p.pageSem = make(chan struct{}, maxPages)
	p.started = true

	utils.Infof("✨ 浏览器就绪, 页面并发上限 %d", maxPages)
	return nil
}

// ProbeURL 浏览器复核单条链接,返回是否存活
// 浏览器操作可能panic,统一recover后按失效处理
func (p *Pool) ProbeURL(ctx context.Context, rawURL string) (alive bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器探测panic: %v (%s)", r, utils.RedactURL(rawURL))
			alive = false
		}
	}()

	if err := p.ensureStarted(); err != nil {
		utils.Errorf("浏览器启动失败: %v", err)
		return false
	}

	if p.cfg.Monitor != nil {
		if ok, reason := p.cfg.Monitor.CheckResourceAvailability(); !ok {
			utils.Warnf("⚠️ %s, 跳过浏览器探测: %s", reason, utils.RedactURL(rawURL))
			return false
		}
	}

	select {
	case p.pageSem <- struct{}{}:
		defer func() { <-p.pageSem }()
	case <-ctx.Done():
		return false
	}

	page, err := stealth.Page(p.incognito)
	if err != nil {
		utils.Errorf("创建隐身页面失败: %v", err)
		return false
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(p.cfg.NavigateTimeout)

	// 拦截重型资源,探测只需要文档本身
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		switch h.Request.Type() {
		case proto.NetworkResourceTypeImage,
			proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeStylesheet,
			proto.NetworkResourceTypeMedia,
			proto.NetworkResourceTypeTextTrack:
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	go router.Run()
	defer func() { _ = router.Stop() }()

	if err := page.Navigate(rawURL); err != nil {
		utils.Debugf("浏览器导航失败: %v", err)
		return false
	}
	if err := page.WaitLoad(); err != nil {
		utils.Debugf("页面加载未完成: %v", err)
		return false
	}

	waitChallengeSettled(page)

	html, err := page.HTML()
	if err != nil {
		return false
	}

	if isOfflineHTML(html) {
		return false
	}

	utils.Debugf("✅ 浏览器复核存活: %s", utils.RedactURL(rawURL))
	return true
}

// waitChallengeSettled 等待质询页自动跳转 (尽力而为)
// 标题不再是质询文案即认为已通过,最多等10秒
func waitChallengeSettled(page *rod.Page) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		info, err := page.Info()
		if err != nil {
			return
		}
		title := info.Title
		if !strings.Contains(title, "Just a moment") &&
			!strings.Contains(title, "Attention Required") &&
			!strings.Contains(title, "Checking your browser") {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// isOfflineHTML 质询通过后的页面内容仍可能是下线提示
func isOfflineHTML(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range []string{
		"file not found",
		"file was deleted",
		"video not found",
		"no longer available",
		"has been removed",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Cleanup 释放浏览器资源,可重复调用
// 顺序: 隐身上下文 -> 浏览器 -> 启动器临时目录
func (p *Pool) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.cleanedUp {
		p.cleanedUp = true
		return
	}
	p.cleanedUp = true

	defer func() {
		if r := recover(); r != nil {
			utils.Warnf("浏览器清理panic: %v", r)
		}
	}()

	if p.incognito != nil && p.incognito.BrowserContextID != "" {
		err := proto.TargetDisposeBrowserContext{
			BrowserContextID: p.incognito.BrowserContextID,
		}.Call(p.browser)
		if err != nil {
			utils.Debugf("释放隐身上下文失败: %v", err)
		}
	}

	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			utils.Debugf("关闭浏览器失败: %v", err)
		}
	}

	if p.launch != nil {
		p.launch.Cleanup()
	}

	utils.Infof("🌐 浏览器资源已释放")
}
