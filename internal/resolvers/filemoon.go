package resolvers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

var filemoonOfflineMarkers = []string{
	"File Not Found",
	"File is no longer available",
	"The file you were looking for could not be found",
}

// Filemoon 打包脚本解析器
// 播放器初始化代码藏在一段p,a,c,k,e,d打包脚本里,
// 还原明文后再跑一遍标准提取套路
type Filemoon struct {
	client *fetch.Client
	hosts  []string
}

// NewFilemoon 创建解析器
func NewFilemoon(client *fetch.Client) *Filemoon {
	return &Filemoon{
		client: client,
		hosts: []string{
			"filemoon.sx",
			"filemoon.to",
			"filemoon.in",
			"kerapoxy.cc",
		},
	}
}

// Name 返回解析器标识
func (f *Filemoon) Name() string { return "filemoon" }

// Hosts 返回负责的域名
func (f *Filemoon) Hosts() []string { return f.hosts }

// Resolve 找到打包脚本,还原后跑标准提取策略
func (f *Filemoon) Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error) {
	if !matchHost(rawURL, f.hosts) {
		return nil, fmt.Errorf("%w: 非filemoon域名", models.ErrInvalidURL)
	}

	page, err := fetchEmbedPage(ctx, f.client, rawURL, "", filemoonOfflineMarkers)
	if err != nil {
		return nil, err
	}

	packed, found := findPackedScript(page)
	if !found {
		return nil, fmt.Errorf("%w: 未找到打包脚本", models.ErrMalformedResponse)
	}

	unpacked, err := Unpack(packed)
	if err != nil {
		return nil, err
	}

	videoURL, tried, ok := runCascade(unpacked, standardStrategies())
	if !ok {
		return nil, fmt.Errorf("%w: 还原文本提取失败 (已尝试: %s)",
			models.ErrMalformedResponse, strings.Join(tried, ","))
	}

	utils.Debugf("[filemoon] 解包后命中策略链: %s", strings.Join(tried, ","))

	return &models.ResolvedStream{
		VideoURL: videoURL,
		Quality:  detectQuality(unpacked),
		IsHLS:    strings.Contains(videoURL, ".m3u8"),
		ExtraHeaders: map[string]string{
			"Referer": rawURL,
			"Origin":  originOf(rawURL),
		},
	}, nil
}

// findPackedScript 遍历页面的script节点找打包形态的脚本
func findPackedScript(page string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		// HTML解析失败时退化为全文匹配
		if IsPacked(page) {
			return page, true
		}
		return "", false
	}

	var packed string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if IsPacked(text) {
			packed = text
			return false
		}
		return true
	})
	return packed, packed != ""
}
