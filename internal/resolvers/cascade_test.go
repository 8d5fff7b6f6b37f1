package resolvers

import (
	"encoding/base64"
	"testing"
)

// TestCascadeShortCircuit 第一个成功的策略胜出,后续不再尝试
func TestCascadeShortCircuit(t *testing.T) {
	page := `player.setup({ file: "https://cdn.example.com/v/master.m3u8" });`

	videoURL, tried, ok := runCascade(page, standardStrategies())
	if !ok {
		t.Fatal("级联应当成功")
	}
	if videoURL != "https://cdn.example.com/v/master.m3u8" {
		t.Errorf("直链 = %q", videoURL)
	}
	if len(tried) != 1 || tried[0] != "direct" {
		t.Errorf("已尝试策略 = %v, 期望只有 direct", tried)
	}
}

// TestCascadeExhaustion 全部策略失败时返回完整尝试记录
func TestCascadeExhaustion(t *testing.T) {
	page := `<html><body>nothing to extract here</body></html>`

	_, tried, ok := runCascade(page, standardStrategies())
	if ok {
		t.Fatal("无可提取内容时级联应当失败")
	}
	if len(tried) != len(standardStrategies()) {
		t.Errorf("已尝试策略数 = %d, 期望 %d", len(tried), len(standardStrategies()))
	}
}

// TestCascadeBaitRejection 诱饵域名命中时视为失败继续级联
func TestCascadeBaitRejection(t *testing.T) {
	// 策略(a)命中诱饵域名,策略(b)的CDN字面量应当接手
	page := `file: "https://cdn.adsterra.example.com/fake.mp4"
https://edge7.realcdn.net/engine/hls2/01/video/master.m3u8?t=abc`

	videoURL, tried, ok := runCascade(page, standardStrategies())
	if !ok {
		t.Fatal("级联应当在诱饵拒绝后继续并成功")
	}
	if videoURL != "https://edge7.realcdn.net/engine/hls2/01/video/master.m3u8?t=abc" {
		t.Errorf("直链 = %q", videoURL)
	}
	if len(tried) != 2 {
		t.Errorf("已尝试策略 = %v, 期望 direct 和 cdn-literal", tried)
	}
}

// TestExtractBase64Token 策略(c): base64令牌解码为裸URL
func TestExtractBase64Token(t *testing.T) {
	plain := "https://cdn.example.com/stream/v.mp4"
	token := base64.StdEncoding.EncodeToString([]byte(plain))
	page := `sources: { "file": "` + token + `" }`

	got, ok := extractBase64Token(page)
	if !ok {
		t.Fatal("令牌解码应当成功")
	}
	if got != plain {
		t.Errorf("解码结果 = %q, 期望 %q", got, plain)
	}
}

// TestExtractReversedJSON 策略(d): 反转JSON载荷
func TestExtractReversedJSON(t *testing.T) {
	plain := `{"file":"https://cdn.example.com/r/master.m3u8"}`
	token := base64.StdEncoding.EncodeToString([]byte(reverseString(plain)))
	page := `"source": "` + token + `"`

	got, ok := extractReversedJSON(page)
	if !ok {
		t.Fatal("反转JSON提取应当成功")
	}
	if got != "https://cdn.example.com/r/master.m3u8" {
		t.Errorf("直链 = %q", got)
	}
}

// TestRot13 字母旋转是对合变换
func TestRot13(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"小写字母", "abcxyz", "nopklm"},
		{"大写字母", "ABC", "NOP"},
		{"数字和符号原样", "a1-b2", "n1-o2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rot13(tt.input); got != tt.want {
				t.Errorf("rot13(%q) = %q, 期望 %q", tt.input, got, tt.want)
			}
			// 两次旋转还原
			if got := rot13(rot13(tt.input)); got != tt.input {
				t.Errorf("rot13两次应还原: %q -> %q", tt.input, got)
			}
		})
	}
}

// TestReverseString 字符串反转
func TestReverseString(t *testing.T) {
	if got := reverseString("https://a.b/c"); got != "c/b.a//:sptth" {
		t.Errorf("reverseString = %q", got)
	}
	if got := reverseString(reverseString("palindrome-check")); got != "palindrome-check" {
		t.Errorf("两次反转应还原: %q", got)
	}
}

// TestIsBaitURL 诱饵域名判定
func TestIsBaitURL(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   bool
	}{
		{"干净CDN", "https://edge.realcdn.net/v.m3u8", false},
		{"广告域名", "https://x.propellerads.com/pop.js", true},
		{"子域名携带诱饵", "https://cdn.exoclick.com/v.mp4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBaitURL(tt.rawURL); got != tt.want {
				t.Errorf("isBaitURL(%q) = %v, 期望 %v", tt.rawURL, got, tt.want)
			}
		})
	}
}
