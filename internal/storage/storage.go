package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"resume-screener-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖。
// 单个组件初始化失败只降级，全部失败才报错
type Storage struct {
	// 关系型数据库，简历记录与评分结果
	MySQL *MySQL

	// 去重快路径缓存
	Redis *Redis

	// 原始简历文件对象存储
	MinIO *MinIO
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	if cfg.MySQL.Host != "" {
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		} else {
			log.Info().Str("host", cfg.MySQL.Host).Str("database", cfg.MySQL.Database).Msg("MySQL初始化成功")
		}
	} else {
		log.Info().Msg("MySQL未配置, 跳过初始化")
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		} else {
			log.Info().Str("address", cfg.Redis.Address).Msg("Redis初始化成功")
		}
	} else {
		log.Info().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	} else {
		log.Info().Msg("MinIO未配置, 跳过初始化")
	}

	if storage.MySQL == nil && storage.Redis == nil && storage.MinIO == nil {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	if len(initErrors) > 0 {
		log.Warn().Strs("failed", initErrors).Msg("部分存储组件初始化失败, 相关功能降级")
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// MinIO客户端无需显式关闭
}
