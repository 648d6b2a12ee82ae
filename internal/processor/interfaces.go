package processor

import (
	"context"
	"time"

	"resume-screener-go/internal/types"
)

//
// 存储依赖接口，由storage包的适配器实现，在入口处装配
//

// RecordStore 简历记录的持久化接口
type RecordStore interface {
	// InsertResume 插入简历记录，内容哈希冲突返回重复内容错误
	InsertResume(ctx context.Context, rec *types.ResumeRecord, sourceChannel, originalFilename, originalFilePath string) error

	// FindByHash 按内容哈希查找，未命中返回(nil, nil)
	FindByHash(ctx context.Context, contentHash string) (*types.ResumeRecord, error)

	// FindByID 按ID查找，未命中返回(nil, nil)
	FindByID(ctx context.Context, resumeID string) (*types.ResumeRecord, error)

	// ListResumes 返回全部简历，按创建时间倒序
	ListResumes(ctx context.Context) ([]*types.ResumeRecord, error)

	// FindOriginalFile 查原始文件的落库元数据，未命中返回空串
	FindOriginalFile(ctx context.Context, resumeID string) (filename, objectKey string, err error)
}

// ScoreStore 评分结果的持久化接口
type ScoreStore interface {
	// SaveScore 保存一次评分，返回评分记录ID
	SaveScore(ctx context.Context, resumeID, jdFingerprint string, score *types.MatchScore) (string, error)

	// LatestScore 取该简历对该岗位的最近一次评分，未命中返回(nil, nil)
	LatestScore(ctx context.Context, resumeID, jdFingerprint string) (*types.MatchScore, error)
}

// BlobStore 原始上传文件的对象存储接口
type BlobStore interface {
	StoreOriginal(ctx context.Context, resumeID, filename string, data []byte) (string, error)
	RetrieveOriginal(ctx context.Context, objectKey string) ([]byte, error)
	DeleteOriginal(ctx context.Context, objectKey string) error

	// PresignedURL 生成限时下载链接
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// DedupCache 内容哈希去重的快路径缓存
type DedupCache interface {
	// CheckAndAddHash 原子检查并记录哈希，true表示之前已见过
	CheckAndAddHash(ctx context.Context, contentHash string) (bool, error)

	// RemoveHash 回滚已记录的哈希
	RemoveHash(ctx context.Context, contentHash string) error

	// SetHashToResumeID 记录哈希到简历ID的映射
	SetHashToResumeID(ctx context.Context, contentHash, resumeID string) error

	// GetResumeIDByHash 按哈希查简历ID，未命中返回空串
	GetResumeIDByHash(ctx context.Context, contentHash string) (string, error)
}

// ScoreCache 打分结果的短期缓存，同一简历同一岗位免去重复打分
type ScoreCache interface {
	// GetCachedScore 未命中返回(nil, nil)
	GetCachedScore(ctx context.Context, resumeID, jdFingerprint string) (*types.MatchScore, error)
	SetCachedScore(ctx context.Context, resumeID, jdFingerprint string, score *types.MatchScore) error
}

//
// 处理组件接口
//

// ResumeParser 结构化解析接口。
// 实现内部自带降级策略，总会给出一个可用的记录
type ResumeParser interface {
	Parse(ctx context.Context, cleanedText string) *types.ResumeRecord
}

// MatchScorer 简历与岗位的匹配评分接口。
// 实现内部自带降级策略，总会给出一个评分
type MatchScorer interface {
	Score(ctx context.Context, resume *types.ResumeRecord, jd *types.JobDescription) *types.MatchScore
}
