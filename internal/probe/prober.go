package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
)

const (
	// DefaultConcurrency 第一阶段HTTP探测并发数
	DefaultConcurrency = 10

	// DefaultBrowserConcurrency 第二阶段浏览器探测并发数
	DefaultBrowserConcurrency = 3

	// DefaultTimeout 单次HTTP探测超时
	DefaultTimeout = 15 * time.Second

	// DefaultBrowserTimeout 单次浏览器探测超时
	DefaultBrowserTimeout = 45 * time.Second
)

// Item 一条待探测链接,Index用于回填调用方的原始切片
type Item struct {
	Index int
	URL   string
}

// BrowserProber 第二阶段升级探测接口
// 质询页需要真实浏览器环境通过验证后再判定存活
type BrowserProber interface {
	ProbeURL(ctx context.Context, rawURL string) bool
}

// Options 批量探测配置
type Options struct {
	Concurrency        int
	Timeout            time.Duration
	BrowserConcurrency int
	BrowserTimeout     time.Duration

	// Browser 为nil时质询页保守判死,不做第二阶段升级
	Browser BrowserProber

	// OnProbed 第一阶段每条链接分类完成后的回调 (进度上报用),可为nil
	OnProbed func(item Item, outcome models.ProbeOutcome)
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BrowserConcurrency <= 0 {
		o.BrowserConcurrency = DefaultBrowserConcurrency
	}
	if o.BrowserTimeout <= 0 {
		o.BrowserTimeout = DefaultBrowserTimeout
	}
}

// Prober 两阶段存活探测器
// 第一阶段用轻量HTTP批量分类;判定为质询的链接升级到第二阶段浏览器复核
type Prober struct {
	opts Options
}

// NewProber 创建探测器
func NewProber(opts Options) *Prober {
	opts.normalize()
	return &Prober{opts: opts}
}

// ProbeBatch 批量探测,返回判定为存活的Index集合
func (p *Prober) ProbeBatch(ctx context.Context, items []Item) map[int]struct{} {
	alive := make(map[int]struct{})
	if len(items) == 0 {
		return alive
	}

	batchID := uuid.New().String()[:8]
	utils.Infof("🔍 [批次 %s] 开始存活探测: %d 条链接, 并发 %d",
		batchID, len(items), p.opts.Concurrency)

	var mu sync.Mutex
	var challenged []Item

	p.probeHTTP(ctx, items, func(item Item, outcome models.ProbeOutcome) {
		mu.Lock()
		switch outcome {
		case models.OutcomeAlive:
			alive[item.Index] = struct{}{}
		case models.OutcomeChallenge:
			challenged = append(challenged, item)
		}
		mu.Unlock()

		if p.opts.OnProbed != nil {
			p.opts.OnProbed(item, outcome)
		}
	})

	utils.Infof("📥 [批次 %s] 第一阶段完成: 存活 %d, 待复核 %d",
		batchID, len(alive), len(challenged))

	if len(challenged) == 0 {
		return alive
	}

	if p.opts.Browser == nil {
		// 无浏览器可用,质询页保守判死
		utils.Warnf("⚠️ [批次 %s] 浏览器探测未启用, %d 条质询链接判定为失效",
			batchID, len(challenged))
		return alive
	}

	p.probeBrowser(ctx, challenged, func(item Item) {
		mu.Lock()
		alive[item.Index] = struct{}{}
		mu.Unlock()
	})

	utils.Infof("✅ [批次 %s] 探测完成: 最终存活 %d/%d", batchID, len(alive), len(items))
	return alive
}

// probeHTTP 第一阶段: 轻量HTTP并发探测
func (p *Prober) probeHTTP(ctx context.Context, items []Item, record func(Item, models.ProbeOutcome)) {
	c := colly.NewCollector(
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(fetch.MaxBodySize),
		// 质询签名在403/503响应体里,错误状态码的内容也要读
		colly.ParseHTTPErrorResponse(),
	)
	c.SetRequestTimeout(p.opts.Timeout)
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: p.opts.Concurrency,
	})

	c.OnRequest(func(r *colly.Request) {
		for name, value := range fetch.BrowserHeaders() {
			r.Headers.Set(name, value)
		}
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})

	c.OnResponse(func(r *colly.Response) {
		item := r.Ctx.GetAny("item").(Item)
		outcome := classify(r.StatusCode, r.Headers.Get("Server"),
			string(r.Body), r.Request.URL.String())
		record(item, outcome)
	})

	c.OnError(func(r *colly.Response, err error) {
		item := r.Ctx.GetAny("item").(Item)
		// colly把非2xx也推到错误回调,有状态码时仍按内容分类
		if r.StatusCode > 0 {
			outcome := classify(r.StatusCode, r.Headers.Get("Server"),
				string(r.Body), r.Request.URL.String())
			record(item, outcome)
			return
		}
		utils.Debugf("[探测] %s 连接失败: %v", item.URL, err)
		record(item, models.OutcomeDead)
	})

	for _, item := range items {
		cctx := colly.NewContext()
		cctx.Put("item", item)
		if err := c.Request("GET", item.URL, nil, cctx, nil); err != nil {
			record(item, models.OutcomeDead)
		}
	}
	c.Wait()
}

// probeBrowser 第二阶段: 质询链接升级到浏览器复核
func (p *Prober) probeBrowser(ctx context.Context, challenged []Item, markAlive func(Item)) {
	sem := make(chan struct{}, p.opts.BrowserConcurrency)
	var wg sync.WaitGroup

	for _, item := range challenged {
		wg.Add(1)
		sem <- struct{}{}
		go func(item Item) {
			defer wg.Done()
			defer func() { <-sem }()

			probeCtx, cancel := context.WithTimeout(ctx, p.opts.BrowserTimeout)
			defer cancel()

			if p.opts.Browser.ProbeURL(probeCtx, item.URL) {
				markAlive(item)
			}
		}(item)
	}
	wg.Wait()
}

// classify 按响应特征分类单条链接
// 判定顺序: 确定性失效状态码 -> 质询签名 -> 其余非200 -> 错误路径 -> 下线文案
func classify(statusCode int, server string, body string, finalURL string) models.ProbeOutcome {
	switch statusCode {
	case 404, 410, 500:
		return models.OutcomeDead
	}

	if looksLikeChallenge(statusCode, server, body) {
		return models.OutcomeChallenge
	}

	if statusCode != 200 {
		return models.OutcomeDead
	}

	if hitsErrorPath(finalURL) {
		return models.OutcomeDead
	}

	if marker, found := containsOfflineMarker(body); found {
		utils.Debugf("[探测] %s 命中下线文案: %q", finalURL, marker)
		return models.OutcomeDead
	}

	return models.OutcomeAlive
}
