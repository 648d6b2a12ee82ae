package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/storage/models"
	"resume-screener-go/internal/types"
)

var mysqlTracer = otel.Tracer("resume-screener-go/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin GORM插件，为数据库操作生成OpenTelemetry追踪点
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	pairs := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"CREATE", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"ROW", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, pair := range pairs {
		name := fmt.Sprintf("otel:%s", pair.op)
		if err := pair.before(name+":before", p.before(pair.op)); err != nil {
			return err
		}
		if err := pair.after(name+":after", p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 未命中属于正常业务路径
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

// MySQL 简历记录与打分结果的持久层
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并完成结构迁移
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{db: db, cfg: cfg}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return m, nil
}

// autoMigrateSchema 迁移期间关闭SQL日志，避免建表语句刷屏
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := gormlogger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Silent,
			IgnoreRecordNotFoundError: true,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})
	if err := silentDB.AutoMigrate(
		&models.Resume{},
		&models.MatchScoreRow{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// InsertResume 插入一条新简历记录。
// content_hash唯一索引冲突映射为重复内容错误，调用方据此走重复分支而不是失败
func (m *MySQL) InsertResume(ctx context.Context, rec *types.ResumeRecord, sourceChannel, originalFilename, originalFilePath string) error {
	row, err := models.FromRecord(rec)
	if err != nil {
		return fmt.Errorf("序列化简历记录失败: %w", err)
	}
	row.SourceChannel = sourceChannel
	row.OriginalFilename = originalFilename
	row.OriginalFilePath = originalFilePath

	if err := m.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return processor.NewDuplicateError(rec.ID, "content_hash已存在")
		}
		return fmt.Errorf("插入简历记录失败: %w", err)
	}
	return nil
}

// FindByHash 按内容哈希查找简历，未命中返回(nil, nil)
func (m *MySQL) FindByHash(ctx context.Context, contentHash string) (*types.ResumeRecord, error) {
	var row models.Resume
	err := m.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按哈希查询简历失败: %w", err)
	}
	return row.ToRecord()
}

// FindByID 按ID查找简历，未命中返回(nil, nil)
func (m *MySQL) FindByID(ctx context.Context, resumeID string) (*types.ResumeRecord, error) {
	var row models.Resume
	err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按ID查询简历失败: %w", err)
	}
	return row.ToRecord()
}

// FindOriginalFile 查原始文件的落库元数据，未命中返回空串
func (m *MySQL) FindOriginalFile(ctx context.Context, resumeID string) (string, string, error) {
	var row models.Resume
	err := m.db.WithContext(ctx).
		Select("original_filename", "original_file_path").
		Where("resume_id = ?", resumeID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("查询原始文件元数据失败: %w", err)
	}
	return row.OriginalFilename, row.OriginalFilePath, nil
}

// ListResumes 按创建时间倒序返回全部简历记录
func (m *MySQL) ListResumes(ctx context.Context) ([]*types.ResumeRecord, error) {
	var rows []models.Resume
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询简历列表失败: %w", err)
	}

	records := make([]*types.ResumeRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToRecord()
		if err != nil {
			return nil, fmt.Errorf("还原简历记录 %s 失败: %w", rows[i].ResumeID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveScore 保存一次打分结果，每次调用插入新行
func (m *MySQL) SaveScore(ctx context.Context, resumeID, jdFingerprint string, score *types.MatchScore) (string, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveScore",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMySQL,
			attribute.String("db.sql.table", "match_scores"),
			attribute.String("resume.id", resumeID),
		))
	defer span.End()

	scoreID, err := uuid.NewV7()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("生成打分ID失败: %w", err)
	}

	row, err := models.FromMatchScore(scoreID.String(), resumeID, jdFingerprint, score)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("序列化打分结果失败: %w", err)
	}

	if err := m.db.WithContext(ctx).Create(row).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("保存打分结果失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return scoreID.String(), nil
}

// LatestScore 返回某简历针对某JD指纹的最近一次打分，未命中返回(nil, nil)
func (m *MySQL) LatestScore(ctx context.Context, resumeID, jdFingerprint string) (*types.MatchScore, error) {
	var row models.MatchScoreRow
	err := m.db.WithContext(ctx).
		Where("resume_id = ? AND jd_fingerprint = ?", resumeID, jdFingerprint).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询打分结果失败: %w", err)
	}
	return row.ToMatchScore()
}
