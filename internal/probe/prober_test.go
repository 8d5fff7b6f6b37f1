package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/models"
)

// TestClassify 单响应分类规则
func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		server     string
		body       string
		finalURL   string
		want       models.ProbeOutcome
	}{
		{
			name:       "200干净页面存活",
			statusCode: 200,
			body:       "<html><video></video></html>",
			finalURL:   "https://host.example/e/abc",
			want:       models.OutcomeAlive,
		},
		{
			name:       "404确定失效",
			statusCode: 404,
			want:       models.OutcomeDead,
		},
		{
			name:       "410确定失效",
			statusCode: 410,
			want:       models.OutcomeDead,
		},
		{
			name:       "500确定失效",
			statusCode: 500,
			want:       models.OutcomeDead,
		},
		{
			name:       "403无质询特征判失效",
			statusCode: 403,
			body:       "<html>Forbidden</html>",
			want:       models.OutcomeDead,
		},
		{
			name:       "403带质询内容签名",
			statusCode: 403,
			body:       "<html><title>Just a moment...</title></html>",
			want:       models.OutcomeChallenge,
		},
		{
			name:       "503且服务端标识cloudflare",
			statusCode: 503,
			server:     "cloudflare",
			body:       "<html>busy</html>",
			want:       models.OutcomeChallenge,
		},
		{
			name:       "200但质询脚本内嵌",
			statusCode: 200,
			body:       `<script>window._cf_chl_opt = {};</script>`,
			want:       models.OutcomeChallenge,
		},
		{
			name:       "重定向落在错误路径",
			statusCode: 200,
			body:       "<html>ok</html>",
			finalURL:   "https://host.example/404",
			want:       models.OutcomeDead,
		},
		{
			name:       "200但命中下线文案",
			statusCode: 200,
			body:       "<html>File Not Found</html>",
			finalURL:   "https://host.example/e/abc",
			want:       models.OutcomeDead,
		},
		{
			name:       "下线文案大小写不敏感",
			statusCode: 200,
			body:       "<html>file not found</html>",
			finalURL:   "https://host.example/e/abc",
			want:       models.OutcomeDead,
		},
		{
			name:       "302等其他非200判失效",
			statusCode: 302,
			want:       models.OutcomeDead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.statusCode, tt.server, tt.body, tt.finalURL)
			if got != tt.want {
				t.Errorf("classify = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

// stubBrowser 固定返回值的浏览器探测桩
type stubBrowser struct {
	alive bool
	calls int32
}

func (s *stubBrowser) ProbeURL(ctx context.Context, rawURL string) bool {
	atomic.AddInt32(&s.calls, 1)
	return s.alive
}

// probeServers 三类行为的测试服务器: 存活/失效/质询
func probeServers(t *testing.T) (alive, dead, challenge string) {
	t.Helper()

	aliveSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><video></video></html>"))
	}))
	deadSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	challengeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<html><title>Just a moment...</title></html>"))
	}))
	t.Cleanup(func() {
		aliveSrv.Close()
		deadSrv.Close()
		challengeSrv.Close()
	})
	return aliveSrv.URL, deadSrv.URL, challengeSrv.URL
}

// TestProbeBatchTwoPhase 质询链接升级到浏览器复核
func TestProbeBatchTwoPhase(t *testing.T) {
	aliveURL, deadURL, challengeURL := probeServers(t)

	browser := &stubBrowser{alive: true}
	prober := NewProber(Options{
		Concurrency: 3,
		Timeout:     3 * time.Second,
		Browser:     browser,
	})

	items := []Item{
		{Index: 0, URL: aliveURL + "/e/abc"},
		{Index: 1, URL: deadURL + "/e/abc"},
		{Index: 2, URL: challengeURL + "/e/abc"},
	}

	result := prober.ProbeBatch(context.Background(), items)

	if _, ok := result[0]; !ok {
		t.Error("干净200页面应判存活")
	}
	if _, ok := result[1]; ok {
		t.Error("404应判失效")
	}
	if _, ok := result[2]; !ok {
		t.Error("质询链接经浏览器复核后应判存活")
	}

	// 只有质询链接升级到第二阶段
	if got := atomic.LoadInt32(&browser.calls); got != 1 {
		t.Errorf("浏览器复核次数 = %d, 期望 1", got)
	}
}

// TestProbeBatchNoBrowser 无浏览器时质询链接保守判死
func TestProbeBatchNoBrowser(t *testing.T) {
	_, _, challengeURL := probeServers(t)

	prober := NewProber(Options{
		Concurrency: 2,
		Timeout:     3 * time.Second,
	})

	result := prober.ProbeBatch(context.Background(), []Item{
		{Index: 0, URL: challengeURL + "/e/abc"},
	})

	if len(result) != 0 {
		t.Errorf("无浏览器时质询链接应被排除, 得到 %v", result)
	}
}

// TestProbeBatchBrowserRejects 浏览器复核失败时保持排除
func TestProbeBatchBrowserRejects(t *testing.T) {
	_, _, challengeURL := probeServers(t)

	prober := NewProber(Options{
		Concurrency: 2,
		Timeout:     3 * time.Second,
		Browser:     &stubBrowser{alive: false},
	})

	result := prober.ProbeBatch(context.Background(), []Item{
		{Index: 0, URL: challengeURL + "/e/abc"},
	})

	if len(result) != 0 {
		t.Errorf("浏览器复核失败的链接应被排除, 得到 %v", result)
	}
}

// TestProbeBatchConnectionError 连接失败判失效
func TestProbeBatchConnectionError(t *testing.T) {
	prober := NewProber(Options{
		Concurrency: 1,
		Timeout:     2 * time.Second,
	})

	// 端口1上没有监听
	result := prober.ProbeBatch(context.Background(), []Item{
		{Index: 0, URL: "http://127.0.0.1:1/e/abc"},
	})

	if len(result) != 0 {
		t.Errorf("连接失败的链接应被排除, 得到 %v", result)
	}
}

// TestOptionsNormalize 零值配置回落到默认值
func TestOptionsNormalize(t *testing.T) {
	opts := Options{}
	opts.normalize()

	if opts.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, 期望 %d", opts.Concurrency, DefaultConcurrency)
	}
	if opts.BrowserConcurrency != DefaultBrowserConcurrency {
		t.Errorf("BrowserConcurrency = %d, 期望 %d", opts.BrowserConcurrency, DefaultBrowserConcurrency)
	}
	if opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, 期望 %v", opts.Timeout, DefaultTimeout)
	}
}
