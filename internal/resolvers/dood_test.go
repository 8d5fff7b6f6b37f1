package resolvers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
)

func testDood(now time.Time) *Dood {
	return &Dood{
		client:  fetch.NewClient(2 * time.Second),
		hosts:   []string{"127.0.0.1"},
		nowFunc: func() time.Time { return now },
	}
}

// TestDoodTokenExchange 两段式令牌交换全流程
func TestDoodTokenExchange(t *testing.T) {
	const cdnHead = "https://cdn-d7.example.net/stream/video~xyz~"
	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/e/abc123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><script>
$.get('/pass_md5/1234/abc123', function(data) {
  window.open(data + "?token=tok9876xyz&expiry=" + Date.now());
});
</script></html>`))
	})
	mux.HandleFunc("/pass_md5/1234/abc123", func(w http.ResponseWriter, r *http.Request) {
		// 第二段请求必须携带嵌入页Referer
		if r.Header.Get("Referer") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(cdnHead + "\n"))
	})

	d := testDood(fixedNow)
	stream, err := d.Resolve(context.Background(), server.URL+"/e/abc123")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	// 直链 = 前缀 + 10位随机尾巴 + token + 固定时钟的毫秒时间戳
	wantExpiry := strconv.FormatInt(fixedNow.UnixMilli(), 10)
	pattern := regexp.MustCompile(
		`^` + regexp.QuoteMeta(cdnHead) + `[a-zA-Z0-9]{10}\?token=tok9876xyz&expiry=` + wantExpiry + `$`)
	if !pattern.MatchString(stream.VideoURL) {
		t.Errorf("直链形态不符: %q", stream.VideoURL)
	}

	if stream.ExtraHeaders["Referer"] == "" {
		t.Error("流应携带嵌入页Referer")
	}
}

// TestDoodCaptchaVsOffline 验证码门槛与下线标记的区分
func TestDoodCaptchaVsOffline(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "验证码门槛返回ErrBlocked",
			body:    `<html><div class="g-recaptcha"></div></html>`,
			wantErr: models.ErrBlocked,
		},
		{
			name:    "质询组件返回ErrBlocked",
			body:    `<html><div class="cf-turnstile"></div></html>`,
			wantErr: models.ErrBlocked,
		},
		{
			name:    "下线文案返回ErrOffline",
			body:    `<html>Video not found</html>`,
			wantErr: models.ErrOffline,
		},
		{
			name:    "同时出现时验证码优先",
			body:    `<html><div class="g-recaptcha"></div>Video not found</html>`,
			wantErr: models.ErrBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			d := testDood(time.Now())
			_, err := d.Resolve(context.Background(), server.URL+"/e/abc123")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, 期望 %v", err, tt.wantErr)
			}
		})
	}
}

// TestDoodMalformedPage 缺少取流路径或令牌时的结构异常
func TestDoodMalformedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>normal page without player</html>`))
	}))
	defer server.Close()

	d := testDood(time.Now())
	_, err := d.Resolve(context.Background(), server.URL+"/e/abc123")
	if !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("err = %v, 期望 ErrMalformedResponse", err)
	}
}

// TestRandomTail 随机尾巴长度与字符集
func TestRandomTail(t *testing.T) {
	tail := randomTail(10)
	if len(tail) != 10 {
		t.Errorf("尾巴长度 = %d, 期望 10", len(tail))
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9]+$`).MatchString(tail) {
		t.Errorf("尾巴包含非法字符: %q", tail)
	}
}
