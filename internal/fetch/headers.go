package fetch

import "net/http"

// 浏览器化请求头
// 托管站普遍根据UA/Accept指纹区分浏览器与脚本,出站请求统一伪装成桌面Firefox
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate, br",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
}

// ApplyBrowserHeaders 将浏览器化头部写入请求头 (已有同名头部不覆盖)
func ApplyBrowserHeaders(h http.Header) {
	for name, value := range browserHeaders {
		if h.Get(name) == "" {
			h.Set(name, value)
		}
	}
}

// BrowserHeaders 返回浏览器化头部的副本 (colly探测器按请求注入时使用)
func BrowserHeaders() map[string]string {
	out := make(map[string]string, len(browserHeaders))
	for name, value := range browserHeaders {
		out[name] = value
	}
	return out
}
