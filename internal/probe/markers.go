package probe

import "strings"

// crossHostOfflineMarkers 跨站点通用的下线文案
// 比各解析器的专属文案更宽泛,用于批量存活探测的页面内容判定
var crossHostOfflineMarkers = []string{
	"File Not Found",
	"File was deleted",
	"File is no longer available",
	"Video not found",
	"This video is no longer available",
	"The file you were looking for could not be found",
	"has been removed",
	"not found on this server",
	"deleted by the owner",
	"due to a copyright",
	"file has expired",
	"File has been removed due to inactivity",
}

// cfMarkers Cloudflare质询页的内容签名
var cfMarkers = []string{
	"Just a moment",
	"cf-browser-verification",
	"challenge-platform",
	"_cf_chl_opt",
	"Checking your browser",
	"Attention Required! | Cloudflare",
}

// errorPathFragments 重定向终点URL中表征被移除的路径片段
var errorPathFragments = []string{
	"/404",
	"/error",
	"/file_not_found",
	"/deleted",
}

// containsOfflineMarker 按标记顺序检查页面内容 (大小写不敏感)
func containsOfflineMarker(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, marker := range crossHostOfflineMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return marker, true
		}
	}
	return "", false
}

// looksLikeChallenge 判断响应是否为Cloudflare质询
// 内容签名命中即判定;403/503且服务端标识为cloudflare时同样判定
func looksLikeChallenge(statusCode int, server string, body string) bool {
	for _, marker := range cfMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	if statusCode == 403 || statusCode == 503 {
		if strings.Contains(strings.ToLower(server), "cloudflare") {
			return true
		}
	}
	return false
}

// hitsErrorPath 判断最终URL是否落在错误路径上
func hitsErrorPath(finalURL string) bool {
	lower := strings.ToLower(finalURL)
	for _, fragment := range errorPathFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
