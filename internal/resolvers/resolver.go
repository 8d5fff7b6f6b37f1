package resolvers

import (
	"context"
	"errors"
	"fmt"

	"github.com/RecoveryAshes/streamcheck/internal/fetch"
	"github.com/RecoveryAshes/streamcheck/internal/models"
	"github.com/RecoveryAshes/streamcheck/internal/utils"
)

// Resolver 托管站解析器
// 输入一个托管站URL,输出可播放流或否定结果
type Resolver interface {
	// Name 稳定的解析器标识 (用于日志与按域名分发)
	Name() string

	// Hosts 该解析器负责的可注册域名列表
	Hosts() []string

	// Resolve 解析URL为可播放流
	// 失败返回分类错误(models.Err*),由注册表边界统一折叠
	Resolve(ctx context.Context, rawURL string) (*models.ResolvedStream, error)
}

// Registry 解析器注册表
// 按可注册域名分发到对应解析器,所有解析器共享一个出站HTTP客户端
type Registry struct {
	byDomain map[string]Resolver
	names    map[string]struct{}
	redactor *utils.URLRedactor
}

// NewRegistry 构建解析器注册表
// 通用解析器按描述符表逐个实例化,再注册各专用解析器
func NewRegistry(client *fetch.Client) (*Registry, error) {
	r := &Registry{
		byDomain: make(map[string]Resolver),
		names:    make(map[string]struct{}),
		redactor: utils.NewURLRedactor(),
	}

	// 描述符家族 -> 通用解析器
	for i := range Descriptors {
		desc := &Descriptors[i]
		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("描述符校验失败: %w", err)
		}
		if err := r.register(NewGeneric(desc, client)); err != nil {
			return nil, err
		}
	}

	// 专用解析器
	bespokes := []Resolver{
		NewVoe(client),
		NewDood(client),
		NewStreamtape(client),
		NewGofile(client),
		NewHexload(client),
		NewFilemoon(client),
	}
	for _, b := range bespokes {
		if err := r.register(b); err != nil {
			return nil, err
		}
	}

	utils.Infof("解析器注册表构建完成: %d个解析器, %d个域名", len(r.names), len(r.byDomain))
	return r, nil
}

// register 注册单个解析器,强制名称全局唯一
func (r *Registry) register(res Resolver) error {
	if _, exists := r.names[res.Name()]; exists {
		return fmt.Errorf("解析器名称重复: %s", res.Name())
	}
	r.names[res.Name()] = struct{}{}

	for _, host := range res.Hosts() {
		if prev, exists := r.byDomain[host]; exists {
			return fmt.Errorf("域名 %s 被 %s 和 %s 重复注册", host, prev.Name(), res.Name())
		}
		r.byDomain[host] = res
	}
	return nil
}

// Lookup 按URL的可注册域名查找解析器
func (r *Registry) Lookup(rawURL string) (Resolver, bool) {
	domain, err := utils.RegistrableDomain(rawURL)
	if err != nil {
		return nil, false
	}
	res, ok := r.byDomain[domain]
	return res, ok
}

// Names 返回所有已注册的解析器名称
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	return names
}

// ResolveURL 解析单个URL,折叠所有错误为否定结果
// 批量解析中单个托管站的失败绝不中断整批,这里是错误分类的终点:
// 只记录日志,返回nil表示该URL被排除
func (r *Registry) ResolveURL(ctx context.Context, rawURL string) *models.ResolvedStream {
	res, ok := r.Lookup(rawURL)
	if !ok {
		// 没有注册解析器的URL直接跳过,不属于失败
		utils.Debugf("无匹配解析器, 跳过: %s", rawURL)
		return nil
	}

	stream, err := res.Resolve(ctx, rawURL)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidURL):
			utils.Debugf("[%s] URL不匹配: %s", res.Name(), rawURL)
		case errors.Is(err, models.ErrBlocked):
			// 被拦截不等于失效,日志级别与下线区分
			utils.Warnf("[%s] 命中反爬拦截: %s", res.Name(), rawURL)
		case errors.Is(err, models.ErrOffline):
			utils.Debugf("[%s] 文件已下线: %s", res.Name(), rawURL)
		default:
			utils.Debugf("[%s] 解析失败: %s - %v", res.Name(), rawURL, err)
		}
		return nil
	}

	utils.Infof("✅ [%s] 解析成功: %s", res.Name(), r.redactor.RedactURL(stream.VideoURL))
	return stream
}
