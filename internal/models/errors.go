package models

import "errors"

// 解析错误分类
// 解析器内部用这些哨兵错误区分失败原因,注册表边界统一折叠为否定结果:
// 批量解析中单个托管站的失败绝不中断整批
var (
	// ErrInvalidURL URL不属于该解析器或无法提取文件ID (未发起网络请求)
	ErrInvalidURL = errors.New("URL无效")

	// ErrUnreachable 连接失败/超时等网络层错误
	ErrUnreachable = errors.New("站点不可达")

	// ErrOffline 站点明确表示文件已下线
	ErrOffline = errors.New("文件已下线")

	// ErrBlocked 命中反爬拦截(验证码/质询), 内容可能仍然存在
	ErrBlocked = errors.New("命中反爬拦截")

	// ErrMalformedResponse 页面结构与预期不符,无法完成反混淆
	ErrMalformedResponse = errors.New("响应结构异常")
)
