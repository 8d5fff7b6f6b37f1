package resolvers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
)

// tapeEmbedPage 嵌入页: 初始参数串携带错误令牌,修正令牌在后置脚本里
const tapeEmbedPage = `<html><body>
<div id="norobotlink">/get_video?id=abc123&token=wrongtoken000</div>
<script>
document.getElementById('norobotlink').innerHTML =
  ('xcdtoken=goodtoken42').substring(3);
</script>
</body></html>`

func testStreamtape(videoStatus int) (*Streamtape, *httptest.Server) {
	mux := http.NewServeMux()
	mux.HandleFunc("/e/abc123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tapeEmbedPage))
	})
	mux.HandleFunc("/get_video", func(w http.ResponseWriter, r *http.Request) {
		// 只有修正后的令牌通过预检
		if r.URL.Query().Get("token") != "goodtoken42" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(videoStatus)
	})
	server := httptest.NewServer(mux)

	s := &Streamtape{
		client: fetch.NewClient(2 * time.Second),
		hosts:  []string{"127.0.0.1"},
	}
	return s, server
}

// TestStreamtapeTokenCorrection 令牌拼接与预检通过
func TestStreamtapeTokenCorrection(t *testing.T) {
	tests := []struct {
		name        string
		videoStatus int
	}{
		{"预检返回200", http.StatusOK},
		{"预检返回206", http.StatusPartialContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, server := testStreamtape(tt.videoStatus)
			defer server.Close()

			rawURL := server.URL + "/e/abc123"
			stream, err := s.Resolve(context.Background(), rawURL)
			if err != nil {
				t.Fatalf("解析失败: %v", err)
			}

			want := server.URL + "/get_video?id=abc123&token=goodtoken42"
			if stream.VideoURL != want {
				t.Errorf("直链 = %q, 期望 %q", stream.VideoURL, want)
			}
			if stream.ExtraHeaders["Referer"] != rawURL {
				t.Errorf("Referer = %q, 期望嵌入页URL", stream.ExtraHeaders["Referer"])
			}
		})
	}
}

// TestStreamtapePreflightRejects 预检失败折叠为下线
func TestStreamtapePreflightRejects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/e/abc123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tapeEmbedPage))
	})
	mux.HandleFunc("/get_video", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := &Streamtape{
		client: fetch.NewClient(2 * time.Second),
		hosts:  []string{"127.0.0.1"},
	}

	_, err := s.Resolve(context.Background(), server.URL+"/e/abc123")
	if !errors.Is(err, models.ErrOffline) {
		t.Errorf("err = %v, 期望 ErrOffline", err)
	}
}

// TestStreamtapeMissingCorrective 缺少修正令牌时的结构异常
func TestStreamtapeMissingCorrective(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><div id="norobotlink">/get_video?id=abc&token=x1</div></html>`))
	}))
	defer server.Close()

	s := &Streamtape{
		client: fetch.NewClient(2 * time.Second),
		hosts:  []string{"127.0.0.1"},
	}

	_, err := s.Resolve(context.Background(), server.URL+"/e/abc123")
	if !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("err = %v, 期望 ErrMalformedResponse", err)
	}
}
