package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
)

const (
	gofileAccountsURL = "https://api.gofile.io/accounts"
	gofileContentsURL = "https://api.gofile.io/contents/%s?wt=4fd6sg89d7s6"

	// 游客凭证实际有效期远长于此,收紧以避免边界上的失效凭证
	gofileCredentialTTL = 30 * time.Minute
)

var gofileIDPattern = regexp.MustCompile(`^/d/([0-9a-zA-Z]{4,})/?$`)

// Gofile 凭证接力解析器
// 内容API要求游客账号凭证,凭证签发昂贵,批量解析时通过缓存复用
type Gofile struct {
	client *fetch.Client
	hosts  []string
	creds  *CredentialCache

	// 内容API地址模板,%s处填入内容ID (测试中指向httptest)
	contentsURL string
}

// NewGofile 创建解析器
func NewGofile(client *fetch.Client) *Gofile {
	return &Gofile{
		client:      client,
		hosts:       []string{"gofile.io"},
		creds:       NewCredentialCache(client, gofileAccountsURL, gofileCredentialTTL),
		contentsURL: gofileContentsURL,
	}
}

// Name 返回解析器标识
func (g *Gofile) Name() string { return "gofile" }

// Hosts 返回负责的域名
func (g *Gofile) Hosts() []string { return g.hosts }

type gofileContentsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Children map[string]struct {
			Type     string `json:"type"`
			Name     string `json:"name"`
			Link     string `json:"link"`
			MimeType string `json:"mimetype"`
		} `json:"children"`
	} `json:"data"`
}

// Resolve 取游客凭证后查询内容API,挑出视频子节点的直链
func (g *Gofile) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	if !matchHost(rawURL, g.hosts) {
		return nil, fmt.Errorf("%w: 非gofile域名", models.ErrInvalidURL)
	}

	contentID, err := gofileContentID(rawURL)
	if err != nil {
		return nil, err
	}

	token, err := g.creds.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.GetJSON(ctx, fmt.Sprintf(g.contentsURL, contentID), token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreachable, err)
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, fmt.Errorf("%w: 内容API HTTP %d", models.ErrBlocked, resp.StatusCode)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: 内容API HTTP %d", models.ErrOffline, resp.StatusCode)
	}

	var contents gofileContentsResponse
	if err := json.Unmarshal(resp.Body, &contents); err != nil {
		return nil, fmt.Errorf("%w: 内容响应无法解析", models.ErrMalformedResponse)
	}

	// 内容被删除或过期时API返回非ok状态
	if contents.Status != "ok" {
		return nil, fmt.Errorf("%w: 内容API状态 %q", models.ErrOffline, contents.Status)
	}

	link := pickGofileVideo(contents)
	if link == "" {
		return nil, fmt.Errorf("%w: 无可用视频子节点", models.ErrOffline)
	}

	return &models.ResolvedStream{
		VideoURL: link,
		Quality:  models.QualityUnknown,
		IsHLS:    false,
		ExtraHeaders: map[string]string{
			// 直链下载要求携带账号Cookie
			"Cookie": "accountToken=" + token,
		},
	}, nil
}

// gofileContentID 从 /d/{id} 路径提取内容ID
func gofileContentID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}
	m := gofileIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: 无法提取内容ID", models.ErrInvalidURL)
	}
	return m[1], nil
}

// pickGofileVideo 从子节点里挑第一个视频文件
func pickGofileVideo(contents gofileContentsResponse) string {
	var fallback string
	for _, child := range contents.Data.Children {
		if child.Type != "file" || child.Link == "" {
			continue
		}
		if strings.HasPrefix(child.MimeType, "video/") {
			return child.Link
		}
		if fallback == "" {
			fallback = child.Link
		}
	}
	return fallback
}
