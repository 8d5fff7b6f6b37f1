package models

import (
	"fmt"
	"regexp"
	"strings"
)

// HostDescriptor 托管站家族描述符
// 结构同构的托管站只在这些参数上有差异,解析行为完全由描述符驱动
type HostDescriptor struct {
	// Name 稳定的站点标识
	Name string

	// DomainAliases 站点的全部可注册域名,第一个为规范域名
	DomainAliases []string

	// FileIDPattern 从URL路径(或查询串)提取文件ID的正则,第一个捕获组为ID
	FileIDPattern *regexp.Regexp

	// MatchQuery 为true时FileIDPattern匹配查询串而非路径
	MatchQuery bool

	// CanonicalPath 规范抓取路径模板,%s处填入文件ID (如 "/e/%s")
	CanonicalPath string

	// OfflineMarkers 页面内容中表征文件已下线的文案,按顺序检查
	OfflineMarkers []string

	// MinIDLength 文件ID最短长度,0表示不限制
	MinIDLength int
}

// Validate 校验描述符完整性
func (d *HostDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("描述符缺少名称")
	}
	if len(d.DomainAliases) == 0 {
		return fmt.Errorf("描述符 %s 缺少域名别名", d.Name)
	}
	if d.FileIDPattern == nil {
		return fmt.Errorf("描述符 %s 缺少文件ID正则", d.Name)
	}
	if d.CanonicalPath == "" || !strings.Contains(d.CanonicalPath, "%s") {
		return fmt.Errorf("描述符 %s 的规范路径模板无效: %q", d.Name, d.CanonicalPath)
	}
	return nil
}
