package resolvers

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

// strategy 单个反混淆策略
// 从页面文本中尝试恢复直链,失败时ok为false,由级联继续尝试下一个
type strategy struct {
	name string
	fn   func(page string) (string, bool)
}

// baitDomains 诱饵域名拒绝表
// 页面偶尔会把播放器直链替换成广告/跟踪域名,命中时视为策略失败继续级联
var baitDomains = []string{
	"adsterra",
	"propellerads",
	"popads.net",
	"trafficjunky",
	"exoclick",
	"clickaine",
	"bcvcdn",
}

// runCascade 按顺序执行反混淆策略,第一个成功者胜出
// 返回恢复的直链、已尝试的策略名(测试与日志用)和是否成功
// 诱饵域名命中会使看似成功的策略被拒绝,级联继续
func runCascade(page string, strategies []strategy) (string, []string, bool) {
	tried := make([]string, 0, len(strategies))

	for _, s := range strategies {
		tried = append(tried, s.name)

		candidate, ok := s.fn(page)
		if !ok {
			continue
		}
		if isBaitURL(candidate) {
			utils.Debugf("策略 %s 命中诱饵域名, 拒绝: %s", s.name, candidate)
			continue
		}
		return candidate, tried, true
	}

	return "", tried, false
}

// isBaitURL 检查URL是否指向诱饵域名
func isBaitURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, bait := range baitDomains {
		if strings.Contains(host, bait) {
			return true
		}
	}
	return false
}

// looksLikeURL 判断字符串是否为http(s)直链
func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// rot13 对字母做13位旋转,其余字符原样保留
func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		default:
			return r
		}
	}, s)
}

// reverseString 反转字符串(按字节,直链只含ASCII)
func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// 标准明文/令牌级联的提取正则
var (
	// (a) 播放器配置中的裸直链: 'hls': 'https://...' 或 file:"https://..."
	directKeyPattern = regexp.MustCompile(`['"]?(?:hls|mp4|file|source|src)['"]?\s*:\s*['"](https?://[^'"]+)['"]`)

	// (b) 页面中逐字出现的CDN路径字面量
	cdnLiteralPattern = regexp.MustCompile(`https?://[a-z0-9-]+(?:\.[a-z0-9-]+)+/(?:engine/hls2?|stream2|cdn|delivery)/[^\s'"<>]+`)

	// (c)/(d) 播放器配置中的不透明base64令牌
	tokenKeyPattern = regexp.MustCompile(`['"]?(?:hls|mp4|file|source)['"]?\s*:\s*['"]([A-Za-z0-9+/=_-]{24,})['"]`)
)

// standardStrategies 标准明文/令牌级联 (策略a-d)
// 内嵌播放器配置的托管站共用;完整替换恢复(策略e)由voe追加
func standardStrategies() []strategy {
	return []strategy{
		{name: "direct", fn: extractDirectURL},
		{name: "cdn-literal", fn: extractCDNLiteral},
		{name: "base64-token", fn: extractBase64Token},
		{name: "reversed-json", fn: extractReversedJSON},
	}
}

// extractDirectURL 策略(a): 已知配置键的值直接就是裸URL
func extractDirectURL(page string) (string, bool) {
	m := directKeyPattern.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractCDNLiteral 策略(b): 页面中逐字内嵌的CDN路径
func extractCDNLiteral(page string) (string, bool) {
	m := cdnLiteralPattern.FindString(page)
	if m == "" {
		return "", false
	}
	return m, true
}

// extractBase64Token 策略(c): base64解码不透明令牌,结果本身是URL则接受
func extractBase64Token(page string) (string, bool) {
	decoded, ok := decodeTokenValue(page)
	if !ok {
		return "", false
	}
	if !looksLikeURL(decoded) {
		return "", false
	}
	return decoded, true
}

// extractReversedJSON 策略(d): 解码结果以反转的JSON收尾符开头时,
// 整串反转后按JSON解析并读取file/source键
func extractReversedJSON(page string) (string, bool) {
	decoded, ok := decodeTokenValue(page)
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(decoded, "}") {
		return "", false
	}

	reversed := reverseString(decoded)
	return fileKeyFromJSON(reversed)
}

// decodeTokenValue 提取并base64解码配置键的不透明令牌值
func decodeTokenValue(page string) (string, bool) {
	m := tokenKeyPattern.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		// URL-safe变体兜底
		decoded, err = base64.URLEncoding.DecodeString(m[1])
		if err != nil {
			return "", false
		}
	}
	return string(decoded), true
}

// fileKeyFromJSON 从JSON对象中读取file/source键的直链
func fileKeyFromJSON(text string) (string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return "", false
	}
	for _, key := range []string{"file", "source"} {
		if v, ok := obj[key].(string); ok && looksLikeURL(v) {
			return v, true
		}
	}
	return "", false
}
