package resolvers

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/models"
)

// Dean Edwards风格的打包脚本: eval(function(p,a,c,k,e,d){...}('payload',radix,count,'dict'.split('|')))
var (
	packedSignaturePattern = regexp.MustCompile(`eval\(function\(p,a,c,k,e,(?:d|r)\)`)

	packedArgsPattern = regexp.MustCompile(`(?s)\}\s*\(\s*'(.*)'\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*'([^']*)'\s*\.split\('\|'\)`)

	packedTokenPattern = regexp.MustCompile(`\b\w+\b`)
)

// IsPacked 判断脚本是否为打包形态
func IsPacked(script string) bool {
	return packedSignaturePattern.MatchString(script)
}

// Unpack 还原打包脚本的明文
// 载荷里每个按进制编码的token替换为字典中对应下标的词,
// 空字典槽位保留token原文
func Unpack(script string) (string, error) {
	m := packedArgsPattern.FindStringSubmatch(script)
	if m == nil {
		return "", fmt.Errorf("%w: 打包参数无法提取", models.ErrMalformedResponse)
	}

	payload := strings.ReplaceAll(m[1], `\'`, `'`)
	radix := atoiSafe(m[2])
	dict := strings.Split(m[4], "|")

	if radix < 2 || radix > 62 {
		return "", fmt.Errorf("%w: 非法进制 %d", models.ErrMalformedResponse, radix)
	}

	unpacked := packedTokenPattern.ReplaceAllStringFunc(payload, func(token string) string {
		idx, ok := parseRadix(token, radix)
		if !ok || idx < 0 || idx >= len(dict) {
			return token
		}
		if dict[idx] == "" {
			return token
		}
		return dict[idx]
	})

	return unpacked, nil
}

// parseRadix 按打包器的自定义基数解析token
// 字符表: 0-9, a-z (10起), A-Z (36起)
// 长token的数值可能超出int范围,溢出前直接判失败:
// 合法字典下标远小于溢出点,溢出的token只可能是载荷里的长标识符原文
func parseRadix(token string, radix int) (int, bool) {
	value := 0
	for _, r := range token {
		var digit int
		switch {
		case r >= '0' && r <= '9':
			digit = int(r - '0')
		case r >= 'a' && r <= 'z':
			digit = int(r-'a') + 10
		case r >= 'A' && r <= 'Z':
			digit = int(r-'A') + 36
		default:
			return 0, false
		}
		if digit >= radix {
			return 0, false
		}
		if value > (math.MaxInt-digit)/radix {
			return 0, false
		}
		value = value*radix + digit
	}
	return value, true
}

func atoiSafe(s string) int {
	value := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		value = value*10 + int(r-'0')
	}
	return value
}
