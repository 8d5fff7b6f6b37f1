package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// TestValidateURL URL格式校验
func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
	}{
		{"标准https", "https://voe.sx/e/abc123", false},
		{"标准http", "http://127.0.0.1:8080/e/abc", false},
		{"缺少协议", "voe.sx/e/abc123", true},
		{"非http协议", "ftp://files.example.com/a", true},
		{"缺少主机名", "https:///e/abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) err = %v, wantErr = %v", tt.rawURL, err, tt.wantErr)
			}
		})
	}
}

// TestRegistrableDomain 可注册域名提取
func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"裸域名", "https://voe.sx/e/abc", "voe.sx"},
		{"子域名折叠", "https://cdn1.voe-unblock.net/e/abc", "voe-unblock.net"},
		{"多级子域名", "https://a.b.streamtape.com/v/x", "streamtape.com"},
		{"带端口", "https://dood.to:8443/e/abc", "dood.to"},
		{"IP地址原样返回", "http://127.0.0.1:9090/e/abc", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RegistrableDomain(tt.rawURL)
			if err != nil {
				t.Fatalf("提取失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("RegistrableDomain(%q) = %q, 期望 %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

// TestReadURLsFromFile URL文件加载: 跳过空行/注释/无效行
func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# 注释行
https://voe.sx/e/abc123

https://dood.to/e/xyz789
not-a-url
https://streamtape.com/v/qwe456
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	want := []string{
		"https://voe.sx/e/abc123",
		"https://dood.to/e/xyz789",
		"https://streamtape.com/v/qwe456",
	}
	if len(urls) != len(want) {
		t.Fatalf("URL数量 = %d, 期望 %d: %v", len(urls), len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, 期望 %q", i, urls[i], want[i])
		}
	}
}

// TestReadURLsFromFileEmpty 无有效URL时报错
func TestReadURLsFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("# 只有注释\n\n"), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	if _, err := ReadURLsFromFile(path); err == nil {
		t.Error("空URL文件应当报错")
	}
}
