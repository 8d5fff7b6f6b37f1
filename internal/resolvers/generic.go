package resolvers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

// 最终URL中出现即判定下线的路径片段
var errorPathFragments = []string{
	"/404",
	"/error",
	"/file_not_found",
	"/deleted",
}

// Generic 描述符驱动的通用解析器
// 覆盖一个结构同构的托管站家族: 域名别名校验 -> 文件ID提取 ->
// 规范域名改写 -> 抓取 -> 下线分类,全部行为由描述符参数化
type Generic struct {
	desc   *models.HostDescriptor
	client *fetch.Client

	// 规范URL协议,生产环境恒为https,测试中指向httptest时改为http
	scheme string
}

// NewGeneric 按描述符创建通用解析器
func NewGeneric(desc *models.HostDescriptor, client *fetch.Client) *Generic {
	return &Generic{
		desc:   desc,
		client: client,
		scheme: "https",
	}
}

// Name 返回描述符名称
func (g *Generic) Name() string {
	return g.desc.Name
}

// Hosts 返回描述符的全部域名别名
func (g *Generic) Hosts() []string {
	return g.desc.DomainAliases
}

// Resolve 解析托管站URL
// 成功时返回的流包装原始URL而非规范URL: 镜像域名身份对调用方可见,
// 规范化只用于对外抓取
func (g *Generic) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	id, err := g.extractFileID(rawURL)
	if err != nil {
		return nil, err
	}

	// 镜像域名统一改写为第一个别名(规范域名)
	canonical := fmt.Sprintf("%s://%s"+g.desc.CanonicalPath, g.scheme, g.desc.DomainAliases[0], id)

	resp, err := g.client.Get(ctx, canonical, "")
	if err != nil {
		// 连接/超时错误不向外传播,批量解析偏向静默排除
		return nil, fmt.Errorf("%w: %v", models.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrOffline, resp.StatusCode)
	}

	// 部分站点对失效文件返回200但重定向到错误页
	for _, fragment := range errorPathFragments {
		if strings.Contains(resp.FinalURL, fragment) {
			return nil, fmt.Errorf("%w: 重定向到错误页 %s", models.ErrOffline, resp.FinalURL)
		}
	}

	// 下线标记按描述符顺序检查,命中即短路
	body := resp.BodyString()
	for _, marker := range g.desc.OfflineMarkers {
		if strings.Contains(body, marker) {
			return nil, fmt.Errorf("%w: 命中下线标记 %q", models.ErrOffline, marker)
		}
	}

	return &models.ResolvedStream{
		VideoURL:     rawURL,
		Quality:      models.QualityUnknown,
		IsHLS:        false,
		ExtraHeaders: map[string]string{},
	}, nil
}

// extractFileID 校验域名别名并提取文件ID
// 任何不匹配都在发起网络请求之前返回ErrInvalidURL
func (g *Generic) extractFileID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: URL格式无效", models.ErrInvalidURL)
	}

	if !g.hostMatches(rawURL, parsed) {
		return "", fmt.Errorf("%w: 域名 %s 不在别名表中", models.ErrInvalidURL, parsed.Host)
	}

	// 按描述符选择匹配目标: URL路径或查询串
	target := parsed.EscapedPath()
	if g.desc.MatchQuery {
		target = parsed.RawQuery
	}

	m := g.desc.FileIDPattern.FindStringSubmatch(target)
	if m == nil || len(m) < 2 || m[1] == "" {
		return "", fmt.Errorf("%w: 未提取到文件ID", models.ErrInvalidURL)
	}

	id := m[1]
	if g.desc.MinIDLength > 0 && len(id) < g.desc.MinIDLength {
		return "", fmt.Errorf("%w: 文件ID过短 (%d < %d)", models.ErrInvalidURL, len(id), g.desc.MinIDLength)
	}

	return id, nil
}

// hostMatches 检查URL主机是否属于描述符的域名别名
// 同时接受可注册域名与完整主机名(含端口)两种匹配,后者用于测试环境
func (g *Generic) hostMatches(rawURL string, parsed *url.URL) bool {
	domain, err := utils.RegistrableDomain(rawURL)
	if err != nil {
		return false
	}

	for _, alias := range g.desc.DomainAliases {
		if alias == domain || alias == parsed.Host || alias == parsed.Hostname() {
			return true
		}
	}
	return false
}
