package utils

import (
	"net/url"
	"strings"
)

var (
	// SensitiveQueryKeys 敏感查询参数名称关键字 (用于脱敏)
	SensitiveQueryKeys = []string{
		"token",
		"key",
		"secret",
		"password",
		"credential",
		"auth",
		"session",
	}
)

// URLRedactor URL脱敏器
// 托管站直链中常携带临时令牌,记录日志前需要脱敏
type URLRedactor struct {
	sensitiveKeys []string
}

// NewURLRedactor 创建URL脱敏器
func NewURLRedactor() *URLRedactor {
	return &URLRedactor{
		sensitiveKeys: SensitiveQueryKeys,
	}
}

// IsSensitiveKey 检查查询参数是否为敏感参数
func (ur *URLRedactor) IsSensitiveKey(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range ur.sensitiveKeys {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactValue 脱敏单个参数值
// 长值显示前4位+后4位,短值完全隐藏
func (ur *URLRedactor) RedactValue(value string) string {
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactURL 脱敏URL中的敏感查询参数,返回可安全记录日志的字符串
// URL无法解析时原样返回(日志路径不应因脱敏失败而中断)
func (ur *URLRedactor) RedactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	changed := false
	for name, values := range query {
		if !ur.IsSensitiveKey(name) {
			continue
		}
		for i, v := range values {
			values[i] = ur.RedactValue(v)
		}
		query[name] = values
		changed = true
	}

	if !changed {
		return rawURL
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// RedactToken 脱敏裸令牌字符串 (用于日志输出)
func (ur *URLRedactor) RedactToken(token string) string {
	return ur.RedactValue(token)
}

// 包级默认脱敏器,供日志路径直接调用
var defaultRedactor = NewURLRedactor()

// RedactURL 使用默认脱敏器脱敏URL
func RedactURL(rawURL string) string {
	return defaultRedactor.RedactURL(rawURL)
}

// RedactToken 使用默认脱敏器脱敏裸令牌
func RedactToken(token string) string {
	return defaultRedactor.RedactToken(token)
}
