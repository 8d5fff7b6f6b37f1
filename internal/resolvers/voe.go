package resolvers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

var (
	// 混淆载荷: <script type="application/json">["..."]</script>
	voePayloadPattern = regexp.MustCompile(`<script[^>]+type=["']application/json["'][^>]*>\s*\[\s*"([^"]+)"\s*\]\s*</script>`)

	// 页面其他位置的7元素占位符数组字面量
	voeJunkArrayPattern = regexp.MustCompile(`\[\s*(?:"[^"]{2,}"\s*,\s*){6}"[^"]{2,}"\s*\]`)
)

// voeOfflineMarkers 该站家族的下线文案
var voeOfflineMarkers = []string{
	"This video does not exist",
	"Video not found",
	"File has been removed",
}

// Voe 分层明文/令牌级联解析器
// 该站把播放器配置混淆后内嵌在页面里,按成本从低到高依次尝试:
// 裸直链 -> CDN字面量 -> base64令牌 -> 反转JSON -> 完整替换恢复,
// 第一个成功的策略胜出并短路后续策略
type Voe struct {
	client *fetch.Client
	hosts  []string
}

// NewVoe 创建解析器
func NewVoe(client *fetch.Client) *Voe {
	return &Voe{
		client: client,
		hosts: []string{
			"voe.sx",
			"voe-unblock.net",
			"voe-network.net",
			"jilliandescribecompany.com",
			"donaldlineelse.com",
		},
	}
}

// Name 返回解析器标识
func (v *Voe) Name() string { return "voe" }

// Hosts 返回负责的域名
func (v *Voe) Hosts() []string { return v.hosts }

// Resolve 抓取嵌入页并运行反混淆级联
func (v *Voe) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	if !matchHost(rawURL, v.hosts) {
		return nil, fmt.Errorf("%w: 非voe域名", models.ErrInvalidURL)
	}

	page, err := fetchEmbedPage(ctx, v.client, rawURL, "", voeOfflineMarkers)
	if err != nil {
		return nil, err
	}

	// 标准级联(a-d) + 完整替换恢复(e)
	strategies := append(standardStrategies(), strategy{
		name: "substitution",
		fn:   recoverSubstitution,
	})

	videoURL, tried, ok := runCascade(page, strategies)
	if !ok {
		return nil, fmt.Errorf("%w: 全部%d个策略失败", models.ErrMalformedResponse, len(tried))
	}
	utils.Debugf("[voe] 策略 %s 命中 (共尝试%d个)", tried[len(tried)-1], len(tried))

	return &models.ResolvedStream{
		VideoURL: videoURL,
		Quality:  detectQuality(page),
		IsHLS:    strings.Contains(videoURL, ".m3u8"),
		ExtraHeaders: map[string]string{
			"Referer": rawURL,
			"Origin":  originOf(rawURL),
		},
	}, nil
}

// recoverSubstitution 策略(e): 完整替换恢复
// 页面其他位置有一个7元素数组,其元素是被混入载荷的固定占位符子串;
// 先全部剔除,再对剩余部分做13位字母旋转,最后base64解码
func recoverSubstitution(page string) (string, bool) {
	pm := voePayloadPattern.FindStringSubmatch(page)
	if pm == nil {
		return "", false
	}
	payload := pm[1]

	junk, ok := findJunkTokens(page)
	if !ok {
		return "", false
	}

	for _, token := range junk {
		payload = strings.ReplaceAll(payload, token, "")
	}

	rotated := rot13(payload)
	decoded, err := base64.StdEncoding.DecodeString(rotated)
	if err != nil {
		return "", false
	}

	text := string(decoded)
	if looksLikeURL(text) {
		return text, true
	}
	return fileKeyFromJSON(text)
}

// findJunkTokens 定位7元素占位符数组
func findJunkTokens(page string) ([]string, bool) {
	for _, literal := range voeJunkArrayPattern.FindAllString(page, -1) {
		var tokens []string
		if err := json.Unmarshal([]byte(literal), &tokens); err != nil {
			continue
		}
		if len(tokens) == 7 {
			return tokens, true
		}
	}
	return nil, false
}
