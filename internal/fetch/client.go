package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/streamcheck/internal/utils"
	"github.com/andybalholm/brotli"
)

const (
	// MaxBodySize 响应体读取上限 (5MB,托管站页面远小于此)
	MaxBodySize = 5 * 1024 * 1024

	// DefaultTimeout 默认请求超时
	DefaultTimeout = 15 * time.Second
)

// Response 一次抓取的结果
type Response struct {
	StatusCode int         // HTTP状态码
	Body       []byte      // 解压后的响应体
	FinalURL   string      // 跟随重定向后的最终URL
	Header     http.Header // 响应头
}

// BodyString 返回响应体字符串
func (r *Response) BodyString() string {
	return string(r.Body)
}

// Client 共享出站HTTP客户端
// 所有解析器共用一个实例,带浏览器化请求头与gzip/deflate/brotli解压
type Client struct {
	httpClient *http.Client

	// 额外附加到每个请求的头部 (命令行-H参数注入)
	extraHeaders map[string]string
}

// NewClient 创建共享HTTP客户端
// 跳过TLS证书验证: 小托管站镜像域名的证书经常过期或主机名不匹配
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
		extraHeaders: make(map[string]string),
	}
}

// SetExtraHeader 设置附加请求头 (覆盖同名的浏览器化头部)
func (c *Client) SetExtraHeader(name, value string) {
	c.extraHeaders[name] = value
}

// Timeout 返回客户端的请求超时
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Get 发起GET请求并读取解压后的响应体
// 自动跟随重定向; referer为空时不设置Referer头
func (c *Client) Get(ctx context.Context, rawURL string, referer string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	ApplyBrowserHeaders(req.Header)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	for name, value := range c.extraHeaders {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	// 手动设置过Accept-Encoding时Go不会自动解压,这里按编码头解压
	body, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		Header:     resp.Header,
	}, nil
}

// GetJSON 发起带Authorization头的GET请求 (API端点专用)
func (c *Client) GetJSON(ctx context.Context, rawURL string, bearer string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	ApplyBrowserHeaders(req.Header)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	body, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		Header:     resp.Header,
	}, nil
}

// Post 发起POST请求 (令牌签发端点专用)
func (c *Client) Post(ctx context.Context, rawURL string, contentType string, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	ApplyBrowserHeaders(req.Header)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	body, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		Header:     resp.Header,
	}, nil
}

// Head 发起轻量验证请求 (预检直链有效性, 允许200/206)
// 部分CDN不支持HEAD,改用携带Range头的GET只取首字节
func (c *Client) Head(ctx context.Context, rawURL string, referer string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("构造请求失败: %w", err)
	}

	ApplyBrowserHeaders(req.Header)
	req.Header.Set("Range", "bytes=0-0")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 响应体不读取,只关心状态码
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode, nil
}

// decompressBody 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		// GZIP解压
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		// Deflate解压
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		// Brotli解压
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		// 没有压缩,直接返回原始内容
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
