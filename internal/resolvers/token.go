package resolvers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

// EphemeralCredential 带生存期的临时凭证
type EphemeralCredential struct {
	Token    string
	IssuedAt time.Time
	TTL      time.Duration
}

// Expired 判断凭证是否已过期
func (c *EphemeralCredential) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) >= c.TTL
}

// CredentialCache 临时凭证缓存
// 凭证未过期时直接复用,过期后重新签发;并发竞争下可能多签发一次,
// 多出来的凭证同样有效,不做额外互斥
type CredentialCache struct {
	client   *fetch.Client
	issueURL string
	ttl      time.Duration
	slot     atomic.Value // *EphemeralCredential
	nowFunc  func() time.Time
}

// NewCredentialCache 创建凭证缓存
func NewCredentialCache(client *fetch.Client, issueURL string, ttl time.Duration) *CredentialCache {
	return &CredentialCache{
		client:   client,
		issueURL: issueURL,
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

type credentialIssueResponse struct {
	Status string `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Token 返回一个未过期的凭证,必要时重新签发
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	if cached, ok := c.slot.Load().(*EphemeralCredential); ok && cached != nil {
		if !cached.Expired(c.nowFunc()) {
			return cached.Token, nil
		}
	}

	raw, err := c.client.Post(ctx, c.issueURL, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("%w: 凭证签发失败: %v", models.ErrUnreachable, err)
	}
	if raw.StatusCode != 200 {
		return "", fmt.Errorf("%w: 凭证签发 HTTP %d", models.ErrUnreachable, raw.StatusCode)
	}

	var resp credentialIssueResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return "", fmt.Errorf("%w: 凭证响应无法解析", models.ErrMalformedResponse)
	}
	if resp.Status != "ok" || resp.Data.Token == "" {
		return "", fmt.Errorf("%w: 凭证响应状态 %q", models.ErrMalformedResponse, resp.Status)
	}

	cred := &EphemeralCredential{
		Token:    resp.Data.Token,
		IssuedAt: c.nowFunc(),
		TTL:      c.ttl,
	}
	c.slot.Store(cred)

	utils.Debugf("🔑 签发新凭证: %s", utils.RedactToken(cred.Token))
	return cred.Token, nil
}
