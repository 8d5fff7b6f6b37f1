package resolvers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

// matchHost 检查URL是否属于解析器负责的域名
// 专用解析器共用的入口校验,不匹配时调用方返回ErrInvalidURL
func matchHost(rawURL string, hosts []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	domain, err := utils.RegistrableDomain(rawURL)
	if err != nil {
		return false
	}
	for _, h := range hosts {
		if h == domain || h == parsed.Host || h == parsed.Hostname() {
			return true
		}
	}
	return false
}

// fetchEmbedPage 抓取嵌入页并做通用下线分类
// 返回页面文本;连接错误/非2xx/错误页重定向/下线标记都折叠为分类错误
func fetchEmbedPage(ctx context.Context, client *fetch.Client, rawURL string, referer string, offlineMarkers []string) (string, error) {
	resp, err := client.Get(ctx, rawURL, referer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP %d", models.ErrOffline, resp.StatusCode)
	}

	for _, fragment := range errorPathFragments {
		if strings.Contains(resp.FinalURL, fragment) {
			return "", fmt.Errorf("%w: 重定向到错误页 %s", models.ErrOffline, resp.FinalURL)
		}
	}

	body := resp.BodyString()
	for _, marker := range offlineMarkers {
		if strings.Contains(body, marker) {
			return "", fmt.Errorf("%w: 命中下线标记 %q", models.ErrOffline, marker)
		}
	}

	return body, nil
}

// qualityLabelPattern 播放器配置中的清晰度标签
var qualityLabelPattern = regexp.MustCompile(`(?:height|label|res)['"]?\s*[:=]\s*['"]?(\d{3,4})`)

// detectQuality 从页面文本推断清晰度,无法判断时返回QualityUnknown
func detectQuality(page string) models.Quality {
	m := qualityLabelPattern.FindStringSubmatch(page)
	if m == nil {
		return models.QualityUnknown
	}

	height, err := strconv.Atoi(m[1])
	if err != nil {
		return models.QualityUnknown
	}

	switch {
	case height >= 2160:
		return models.QualityUHD4K
	case height >= 1080:
		return models.QualityHD1080
	case height >= 720:
		return models.QualityHD720
	case height >= 360:
		return models.QualitySD
	default:
		return models.QualityUnknown
	}
}

// originOf 取URL的协议+主机,作为CDN要求的Origin头
func originOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
