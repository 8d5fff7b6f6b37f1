package models

// Quality 视频清晰度档位
type Quality int

const (
	QualityUnknown Quality = iota
	QualityCAM
	QualityTS
	QualitySD
	QualityHD720
	QualityHD1080
	QualityUHD4K
)

// String 返回清晰度的可读标签
func (q Quality) String() string {
	switch q {
	case QualityCAM:
		return "CAM"
	case QualityTS:
		return "TS"
	case QualitySD:
		return "SD"
	case QualityHD720:
		return "720p"
	case QualityHD1080:
		return "1080p"
	case QualityUHD4K:
		return "4K"
	default:
		return "unknown"
	}
}

// ResolvedStream 解析成功后的可播放流
type ResolvedStream struct {
	// VideoURL 可播放的视频地址 (直链或确认有效的原始URL)
	VideoURL string

	// Quality 推断的清晰度,无法判断时为QualityUnknown
	Quality Quality

	// IsHLS 是否为HLS流 (m3u8)
	IsHLS bool

	// ExtraHeaders 播放该流必须携带的请求头 (Referer/Origin/Cookie等)
	ExtraHeaders map[string]string
}
