package resolvers

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
)

var (
	// 嵌入页内联脚本里的临时取流路径: $.get('/pass_md5/...')
	doodPassPathPattern = regexp.MustCompile(`\$\.get\('(/pass_md5/[^']+)'`)

	// makePlay拼接的访问令牌: ?token=xxx&expiry=
	doodTokenPattern = regexp.MustCompile(`\?token=([a-zA-Z0-9]+)&expiry=`)

	// 验证码门槛特征,与下线标记严格区分
	doodCaptchaMarkers = []string{
		"g-recaptcha",
		"grecaptcha",
		"cf-turnstile",
	}
)

// doodOfflineMarkers 确定性下线文案
var doodOfflineMarkers = []string{
	"File you are looking for is not found",
	"Video not found",
	"file might have been moved or deleted",
}

// doodTailChars 随机尾巴字符集 (站点要求CDN路径追加10位随机串)
const doodTailChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Dood 两段式令牌交换解析器
// 嵌入页只给出临时取流路径和访问令牌,需要第二次请求换取CDN直链前缀,
// 最终URL = 前缀 + 随机尾巴 + 令牌 + 当前毫秒时间戳过期参数
type Dood struct {
	client *fetch.Client
	hosts  []string

	// 注入时钟,测试时固定过期参数
	nowFunc func() time.Time
}

// NewDood 创建解析器
func NewDood(client *fetch.Client) *Dood {
	return &Dood{
		client: client,
		hosts: []string{
			"dood.watch",
			"doodstream.com",
			"dood.to",
			"dood.so",
			"dood.la",
			"ds2play.com",
			"d0000d.com",
		},
		nowFunc: time.Now,
	}
}

// Name 返回解析器标识
func (d *Dood) Name() string { return "dood" }

// Hosts 返回负责的域名
func (d *Dood) Hosts() []string { return d.hosts }

// Resolve 两段式解析
// 验证码门槛返回ErrBlocked而非ErrOffline: 内容可能仍然存在,
// 调用方不能把被拦截当作文件被删除的证据
func (d *Dood) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	if !matchHost(rawURL, d.hosts) {
		return nil, fmt.Errorf("%w: 非dood域名", models.ErrInvalidURL)
	}

	resp, err := d.client.Get(ctx, rawURL, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrOffline, resp.StatusCode)
	}

	page := resp.BodyString()

	// 先判验证码门槛,再判下线标记,顺序不能颠倒
	for _, marker := range doodCaptchaMarkers {
		if strings.Contains(page, marker) {
			return nil, fmt.Errorf("%w: 命中验证码门槛", models.ErrBlocked)
		}
	}
	for _, marker := range doodOfflineMarkers {
		if strings.Contains(page, marker) {
			return nil, fmt.Errorf("%w: 命中下线标记 %q", models.ErrOffline, marker)
		}
	}

	pm := doodPassPathPattern.FindStringSubmatch(page)
	if pm == nil {
		return nil, fmt.Errorf("%w: 未找到取流路径", models.ErrMalformedResponse)
	}
	tm := doodTokenPattern.FindStringSubmatch(page)
	if tm == nil {
		return nil, fmt.Errorf("%w: 未找到访问令牌", models.ErrMalformedResponse)
	}
	token := tm[1]

	// 第二次请求: 用嵌入页作Referer换取CDN直链前缀
	parsed, err := url.Parse(resp.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	passURL := parsed.Scheme + "://" + parsed.Host + pm[1]

	passResp, err := d.client.Get(ctx, passURL, resp.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreachable, err)
	}
	if passResp.StatusCode < 200 || passResp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: 取流请求 HTTP %d", models.ErrOffline, passResp.StatusCode)
	}

	head := strings.TrimSpace(passResp.BodyString())
	if !looksLikeURL(head) {
		return nil, fmt.Errorf("%w: 取流响应不是URL前缀", models.ErrMalformedResponse)
	}

	expiry := strconv.FormatInt(d.nowFunc().UnixMilli(), 10)
	videoURL := head + randomTail(10) + "?token=" + token + "&expiry=" + expiry

	return &models.ResolvedStream{
		VideoURL: videoURL,
		Quality:  detectQuality(page),
		IsHLS:    false,
		ExtraHeaders: map[string]string{
			"Referer": resp.FinalURL,
		},
	}, nil
}

// randomTail 生成n位随机尾巴
func randomTail(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = doodTailChars[rand.Intn(len(doodTailChars))]
	}
	return string(b)
}
