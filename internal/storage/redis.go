package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

// ErrNotFound 键不存在，封装底层的redis.Nil
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-screener-go/storage/redis")

// Redis 去重快路径缓存。
// 内容哈希集合挡掉绝大多数重复上传，MySQL的唯一索引兜底
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// hashExpireDuration 返回去重记录的过期时间
func (r *Redis) hashExpireDuration() time.Duration {
	days := r.config.HashRecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndAddHash 原子地检查内容哈希是否已见过并记录之。
// 返回true表示哈希已存在(重复上传)
func (r *Redis) CheckAndAddHash(ctx context.Context, contentHash string) (exists bool, err error) {
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndAddHash",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("net.peer.name", r.config.Address),
		attribute.String("db.operation", "EVAL"),
		attribute.String("db.redis.key", constants.KeyContentHashSet),
	)

	if r.Client == nil {
		err = fmt.Errorf("redis客户端未初始化")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	// Lua脚本保证SISMEMBER和SADD之间没有竞争窗口
	script := `
		local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
		redis.call('SADD', KEYS[1], ARGV[1])
		redis.call('EXPIRE', KEYS[1], ARGV[2])
		return exists
	`

	res, err := r.Client.Eval(ctx, script, []string{constants.KeyContentHashSet},
		contentHash, int(r.hashExpireDuration().Seconds())).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}

	existsVal, ok := res.(int64)
	if !ok {
		err = fmt.Errorf("意外的Redis返回类型: %T", res)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	exists = existsVal == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// RemoveHash 从去重集合移除哈希。
// 插入数据库失败时回滚快路径状态，避免缓存声称存在但库里没有
func (r *Redis) RemoveHash(ctx context.Context, contentHash string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	pipe := r.Client.Pipeline()
	pipe.SRem(ctx, constants.KeyContentHashSet, contentHash)
	pipe.Del(ctx, fmt.Sprintf(constants.KeyContentHashToResumeID, contentHash))
	_, err := pipe.Exec(ctx)
	return err
}

// SetHashToResumeID 记录内容哈希到简历ID的映射，重复上传时免查库直接返回已有ID
func (r *Redis) SetHashToResumeID(ctx context.Context, contentHash, resumeID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyContentHashToResumeID, contentHash)
	return r.Client.Set(ctx, key, resumeID, r.hashExpireDuration()).Err()
}

// GetResumeIDByHash 按内容哈希查简历ID，未命中返回空串
func (r *Redis) GetResumeIDByHash(ctx context.Context, contentHash string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyContentHashToResumeID, contentHash)
	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// 打分结果缓存的过期时间。
// JD指纹入键, 同一简历对不同岗位互不干扰
const scoreCacheTTL = 24 * time.Hour

// SetCachedScore 缓存某简历对某岗位的打分结果
func (r *Redis) SetCachedScore(ctx context.Context, resumeID, jdFingerprint string, score *types.MatchScore) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("序列化打分结果失败: %w", err)
	}
	key := fmt.Sprintf(constants.KeyMatchScoreCache, resumeID, jdFingerprint)
	return r.Client.Set(ctx, key, payload, scoreCacheTTL).Err()
}

// GetCachedScore 读取缓存的打分结果，未命中返回(nil, nil)
func (r *Redis) GetCachedScore(ctx context.Context, resumeID, jdFingerprint string) (*types.MatchScore, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyMatchScoreCache, resumeID, jdFingerprint)
	payload, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var score types.MatchScore
	if err := json.Unmarshal(payload, &score); err != nil {
		// 缓存内容损坏时当作未命中，下次写入会覆盖
		return nil, nil
	}
	return &score, nil
}
