package resolvers

import (
	"regexp"

	"github.com/RecoveryAshes/streamcheck/internal/models"
)

// 常见的XFS系托管站文件ID形态
var (
	// /e/abc123 或 /d/abc123 或 /video/abc123 或裸 /abc123
	idPathPattern = regexp.MustCompile(`^/(?:(?:e|d|v|f|w|video|file)/)?([0-9a-zA-Z]{6,})(?:/|\.html)?$`)

	// 经典XFS嵌入页 /embed-abc123.html 或 /e/abc123
	idEmbedPattern = regexp.MustCompile(`^/(?:embed-|e/)([0-9a-zA-Z]{6,})(?:\.html)?$`)

	// 查询串形态 ?v=abc123
	idQueryPattern = regexp.MustCompile(`(?:^|&)(?:v|id|vid)=([0-9a-zA-Z]{6,})`)
)

// 复用率最高的下线标记组
var xfsOfflineMarkers = []string{
	"File Not Found",
	"file was deleted",
	"File is no longer available",
	"The file you were looking for could not be found",
}

// Descriptors 托管站家族描述符表
// 这些站点只在URL形态和下线文案上有差异,共用同一个通用解析器
// 每个描述符的第一个域名别名为规范域名,镜像域名在解析时被改写为它
var Descriptors = []models.HostDescriptor{
	{
		Name:          "streamwish",
		DomainAliases: []string{"streamwish.to", "swhoi.com", "playerwish.com", "strwish.xyz"},
		FileIDPattern: idPathPattern,
		CanonicalPath: "/e/%s",
		OfflineMarkers: append([]string{
			"This video is unavailable",
		}, xfsOfflineMarkers...),
		MinIDLength: 8,
	},
	{
		Name:           "filelions",
		DomainAliases:  []string{"filelions.to", "filelions.online", "alions.pro"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/v/%s",
		OfflineMarkers: xfsOfflineMarkers,
		MinIDLength:    8,
	},
	{
		Name:           "vidhide",
		DomainAliases:  []string{"vidhidepro.com", "vidhidevip.com", "vidhideplus.com"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
		MinIDLength:    8,
	},
	{
		Name:          "dropload",
		DomainAliases: []string{"dropload.io", "dropload.tv"},
		FileIDPattern: idEmbedPattern,
		CanonicalPath: "/embed-%s.html",
		OfflineMarkers: append([]string{
			"Withdrawn due to copyright",
		}, xfsOfflineMarkers...),
		MinIDLength: 12,
	},
	{
		Name:           "supervideo",
		DomainAliases:  []string{"supervideo.tv", "supervideo.cc"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "bigwarp",
		DomainAliases:  []string{"bigwarp.io", "bgwp.cc"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "savefiles",
		DomainAliases:  []string{"savefiles.com", "streamhls.to"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "luluvdo",
		DomainAliases:  []string{"luluvdo.com", "lulu.st"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:          "vidmoly",
		DomainAliases: []string{"vidmoly.to", "vidmoly.me", "vidmoly.net"},
		FileIDPattern: idEmbedPattern,
		CanonicalPath: "/embed-%s.html",
		OfflineMarkers: append([]string{
			"Sorry, the video was deleted",
		}, xfsOfflineMarkers...),
	},
	{
		Name:           "upstream",
		DomainAliases:  []string{"upstream.to"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/embed-%s.html",
		OfflineMarkers: xfsOfflineMarkers,
		MinIDLength:    12,
	},
	{
		Name:           "powvideo",
		DomainAliases:  []string{"powvideo.net", "povvideo.net", "powvldo.co"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/embed-%s.html",
		OfflineMarkers: xfsOfflineMarkers,
		MinIDLength:    12,
	},
	{
		Name:          "uqload",
		DomainAliases: []string{"uqload.net", "uqload.io", "uqload.com"},
		FileIDPattern: idEmbedPattern,
		CanonicalPath: "/embed-%s.html",
		OfflineMarkers: append([]string{
			"File was deleted",
		}, xfsOfflineMarkers...),
	},
	{
		Name:           "vtube",
		DomainAliases:  []string{"vtube.network", "vtbe.to"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/embed-%s.html",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "wolfstream",
		DomainAliases:  []string{"wolfstream.tv"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:          "mp4upload",
		DomainAliases: []string{"mp4upload.com"},
		FileIDPattern: idEmbedPattern,
		CanonicalPath: "/embed-%s.html",
		OfflineMarkers: append([]string{
			"File was deleted",
		}, xfsOfflineMarkers...),
	},
	{
		Name:           "userload",
		DomainAliases:  []string{"userload.co"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "evoload",
		DomainAliases:  []string{"evoload.io"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "streamruby",
		DomainAliases:  []string{"streamruby.com", "rubystm.com", "rubyvid.com"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
		MinIDLength:    12,
	},
	{
		Name:          "vidoza",
		DomainAliases: []string{"vidoza.net", "videzz.net"},
		FileIDPattern: idEmbedPattern,
		CanonicalPath: "/embed-%s.html",
		OfflineMarkers: append([]string{
			"Video not found",
		}, xfsOfflineMarkers...),
	},
	{
		Name:          "netu",
		DomainAliases: []string{"netu.tv", "hqq.tv", "waaw.to"},
		FileIDPattern: idQueryPattern,
		MatchQuery:    true,
		CanonicalPath: "/watch_video.php?v=%s",
		OfflineMarkers: append([]string{
			"This video doesn't exist",
		}, xfsOfflineMarkers...),
	},
	{
		Name:           "fastream",
		DomainAliases:  []string{"fastream.to"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/embed-%s.html",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "goodstream",
		DomainAliases:  []string{"goodstream.uno"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/video/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "streamhub",
		DomainAliases:  []string{"streamhub.to", "streamhub.gg"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "vidtube",
		DomainAliases:  []string{"vidtube.pro", "vidtube.one"},
		FileIDPattern:  idPathPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
	{
		Name:           "streamvid",
		DomainAliases:  []string{"streamvid.net", "streamvid.su"},
		FileIDPattern:  idEmbedPattern,
		CanonicalPath:  "/e/%s",
		OfflineMarkers: xfsOfflineMarkers,
	},
}
