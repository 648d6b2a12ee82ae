package processor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-screener-go/internal/parser"
)

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	// 文档文本提取链
	TextProvider parser.DocumentTextProvider

	// 结构化解析器
	Parser ResumeParser

	// 匹配评分器
	Scorer MatchScorer

	// 存储层依赖
	Records    RecordStore
	Scores     ScoreStore
	Blobs      BlobStore
	Dedup      DedupCache
	ScoreCache ScoreCache
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	SourceChannel string          // 默认上传来源渠道
	Logger        *zerolog.Logger // 日志记录器
	TimeLocation  *time.Location  // 时区设置
}

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithcompTextprovider 设置文档文本提取组件
func WithcompTextprovider(p parser.DocumentTextProvider) ComponentOpt {
	return func(c *Components) {
		c.TextProvider = p
	}
}

// WithcompParser 设置结构化解析组件
func WithcompParser(p ResumeParser) ComponentOpt {
	return func(c *Components) {
		c.Parser = p
	}
}

// WithcompScorer 设置匹配评分组件
func WithcompScorer(s MatchScorer) ComponentOpt {
	return func(c *Components) {
		c.Scorer = s
	}
}

// WithcompRecordstore 设置简历记录存储
func WithcompRecordstore(r RecordStore) ComponentOpt {
	return func(c *Components) {
		c.Records = r
	}
}

// WithcompScorestore 设置评分结果存储
func WithcompScorestore(s ScoreStore) ComponentOpt {
	return func(c *Components) {
		c.Scores = s
	}
}

// WithcompBlobstore 设置原始文件对象存储
func WithcompBlobstore(b BlobStore) ComponentOpt {
	return func(c *Components) {
		c.Blobs = b
	}
}

// WithcompDedupcache 设置去重缓存
func WithcompDedupcache(d DedupCache) ComponentOpt {
	return func(c *Components) {
		c.Dedup = d
	}
}

// WithcompScorecache 设置打分结果缓存
func WithcompScorecache(c ScoreCache) ComponentOpt {
	return func(comp *Components) {
		comp.ScoreCache = c
	}
}

// WithsetSourcechannel 设置默认上传来源渠道
func WithsetSourcechannel(channel string) SettingOpt {
	return func(s *Settings) {
		s.SourceChannel = channel
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(logger *zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithsetTimelocation 设置时区
func WithsetTimelocation(loc *time.Location) SettingOpt {
	return func(s *Settings) {
		s.TimeLocation = loc
	}
}
