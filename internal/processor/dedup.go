package processor

import (
	"context"

	"github.com/rs/zerolog"
)

// DedupResult 去重判定结果
type DedupResult struct {
	Duplicate        bool   // 内容哈希此前已见过
	ExistingResumeID string // 命中时已有记录的ID，缓存映射缺失且库里查不到时可能为空
}

// DuplicateGate 上传去重闸门。
// Redis集合是快路径，MySQL的唯一索引是最终权威。
// 缓存出错或未配置时直接查库，去重语义不受缓存可用性影响
type DuplicateGate struct {
	cache   DedupCache
	records RecordStore
	logger  *zerolog.Logger
}

// NewDuplicateGate 创建去重闸门，cache可为nil
func NewDuplicateGate(cache DedupCache, records RecordStore, logger *zerolog.Logger) *DuplicateGate {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DuplicateGate{cache: cache, records: records, logger: logger}
}

// Check 判定内容哈希是否重复。
// 快路径命中后仍需拿到已有记录的ID，映射缺失时回查数据库
func (g *DuplicateGate) Check(ctx context.Context, contentHash string) (*DedupResult, error) {
	if g.cache != nil {
		exists, err := g.cache.CheckAndAddHash(ctx, contentHash)
		if err != nil {
			g.logger.Warn().Err(err).Msg("去重缓存不可用, 降级为数据库查重")
		} else if exists {
			id, err := g.cache.GetResumeIDByHash(ctx, contentHash)
			if err != nil || id == "" {
				return g.checkDatabase(ctx, contentHash)
			}
			return &DedupResult{Duplicate: true, ExistingResumeID: id}, nil
		} else {
			// 缓存声称首见，数据库仍要兜底，缓存过期会漏
			res, err := g.checkDatabase(ctx, contentHash)
			if err != nil {
				// 判定失败时撤掉刚写入的哈希，避免下次误判为重复
				g.rollbackCache(ctx, contentHash)
			}
			return res, err
		}
	}
	return g.checkDatabase(ctx, contentHash)
}

// Commit 新记录落库成功后补全哈希到ID的映射
func (g *DuplicateGate) Commit(ctx context.Context, contentHash, resumeID string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.SetHashToResumeID(ctx, contentHash, resumeID); err != nil {
		g.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("写入哈希映射失败")
	}
}

// Rollback 落库失败后撤销快路径中的哈希记录
func (g *DuplicateGate) Rollback(ctx context.Context, contentHash string) {
	g.rollbackCache(ctx, contentHash)
}

func (g *DuplicateGate) rollbackCache(ctx context.Context, contentHash string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.RemoveHash(ctx, contentHash); err != nil {
		g.logger.Warn().Err(err).Msg("回滚去重缓存失败")
	}
}

func (g *DuplicateGate) checkDatabase(ctx context.Context, contentHash string) (*DedupResult, error) {
	if g.records == nil {
		return &DedupResult{}, nil
	}
	existing, err := g.records.FindByHash(ctx, contentHash)
	if err != nil {
		return nil, NewDatabaseError("", "查询内容哈希失败: "+err.Error())
	}
	if existing == nil {
		return &DedupResult{}, nil
	}
	// 数据库命中而缓存未命中说明缓存冷或已过期，顺手回填
	if g.cache != nil {
		if _, err := g.cache.CheckAndAddHash(ctx, contentHash); err == nil {
			g.Commit(ctx, contentHash, existing.ID)
		}
	}
	return &DedupResult{Duplicate: true, ExistingResumeID: existing.ID}, nil
}
