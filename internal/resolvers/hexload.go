package resolvers

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
)

// data-stream属性里是"|"分隔的十六进制段
var hexloadStreamPattern = regexp.MustCompile(`data-stream\s*=\s*["']([0-9a-fA-F|]+)["']`)

var hexloadOfflineMarkers = []string{
	"File Not Found",
	"File was deleted",
	"file you were looking for could not be found",
}

// Hexload 十六进制倒序解析器
// 直链先整体倒序,再按字节编码为十六进制,用"|"切段后塞进data-stream属性
type Hexload struct {
	client *fetch.Client
	hosts  []string
}

// NewHexload 创建解析器
func NewHexload(client *fetch.Client) *Hexload {
	return &Hexload{
		client: client,
		hosts:  []string{"hexload.com", "hexupload.net"},
	}
}

// Name 返回解析器标识
func (h *Hexload) Name() string { return "hexload" }

// Hosts 返回负责的域名
func (h *Hexload) Hosts() []string { return h.hosts }

// Resolve 提取data-stream属性并还原直链
func (h *Hexload) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	if !matchHost(rawURL, h.hosts) {
		return nil, fmt.Errorf("%w: 非hexload域名", models.ErrInvalidURL)
	}

	page, err := fetchEmbedPage(ctx, h.client, rawURL, "", hexloadOfflineMarkers)
	if err != nil {
		return nil, err
	}

	m := hexloadStreamPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("%w: 未找到data-stream属性", models.ErrMalformedResponse)
	}

	videoURL, err := decodeHexStream(m[1])
	if err != nil {
		return nil, err
	}

	return &models.ResolvedStream{
		VideoURL: videoURL,
		Quality:  detectQuality(page),
		IsHLS:    strings.Contains(videoURL, ".m3u8"),
		ExtraHeaders: map[string]string{
			"Referer": rawURL,
		},
	}, nil
}

// decodeHexStream 还原编码后的直链
// 去掉分段符 -> 十六进制解码 -> 整体倒序
func decodeHexStream(encoded string) (string, error) {
	joined := strings.ReplaceAll(encoded, "|", "")
	if len(joined)%2 != 0 {
		return "", fmt.Errorf("%w: 十六进制串长度为奇数", models.ErrMalformedResponse)
	}

	decoded, err := hex.DecodeString(joined)
	if err != nil {
		return "", fmt.Errorf("%w: 十六进制解码失败", models.ErrMalformedResponse)
	}

	videoURL := reverseString(string(decoded))
	if !looksLikeURL(videoURL) {
		return "", fmt.Errorf("%w: 还原结果不是URL", models.ErrMalformedResponse)
	}
	return videoURL, nil
}
