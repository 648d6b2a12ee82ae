package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/types"
)

var tracer = otel.Tracer("processor")

// 支持的上传文件扩展名
var allowedUploadExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// UploadResult 上传处理结果
type UploadResult struct {
	ResumeID  string              `json:"resume_id"`
	Duplicate bool                `json:"duplicate"`
	ObjectKey string              `json:"object_key,omitempty"`
	Record    *types.ResumeRecord `json:"record,omitempty"`
}

// OriginalFile 取回的原始上传文件
type OriginalFile struct {
	Filename string
	Data     []byte
}

// ResumeService 定义简历处理服务的接口。
// 采用Facade模式，内部持有所有需要的组件，但不暴露给外部
type ResumeService interface {
	// Upload 处理上传的简历，走 提取文本->去重->结构化解析->落库 管线
	Upload(ctx context.Context, filename string, data []byte, sourceChannel string) (*UploadResult, error)

	// GetResume 按ID取回已解析的简历记录
	GetResume(ctx context.Context, resumeID string) (*types.ResumeRecord, error)

	// DownloadOriginal 取回上传时留存的原始文件
	DownloadOriginal(ctx context.Context, resumeID string) (*OriginalFile, error)

	// OriginalFileURL 生成原始文件的限时下载链接
	OriginalFileURL(ctx context.Context, resumeID string, expiry time.Duration) (string, error)

	// MatchJob 对单份简历打分并持久化评分结果
	MatchJob(ctx context.Context, resumeID string, jd *types.JobDescription) (*types.MatchScore, error)

	// MatchAllResumes 对全部简历打分，按总分降序返回
	MatchAllResumes(ctx context.Context, jd *types.JobDescription) ([]types.RankedMatch, error)
}

type resumeServiceImpl struct {
	components Components
	settings   Settings
	gate       *DuplicateGate
	logger     *zerolog.Logger
}

// NewResumeService 创建新的简历服务实例
func NewResumeService(compOpts []ComponentOpt, setOpts []SettingOpt) (ResumeService, error) {
	components := Components{}
	for _, opt := range compOpts {
		opt(&components)
	}

	settings := Settings{
		SourceChannel: constants.DefaultSourceChannel,
	}
	for _, opt := range setOpts {
		opt(&settings)
	}
	if settings.Logger == nil {
		nop := zerolog.Nop()
		settings.Logger = &nop
	}

	if components.Parser == nil {
		return nil, fmt.Errorf("解析器组件不能为空")
	}
	if components.Records == nil {
		return nil, fmt.Errorf("简历存储组件不能为空")
	}
	if components.Scorer == nil {
		return nil, fmt.Errorf("评分组件不能为空")
	}

	return &resumeServiceImpl{
		components: components,
		settings:   settings,
		gate:       NewDuplicateGate(components.Dedup, components.Records, settings.Logger),
		logger:     settings.Logger,
	}, nil
}

// Upload 处理上传的简历。
// 重复上传不算错误，返回已有记录的ID并丢弃本次的文件副本
func (s *resumeServiceImpl) Upload(ctx context.Context, filename string, data []byte, sourceChannel string) (*UploadResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.Upload",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("upload.filename", filename),
		attribute.Int("upload.size_bytes", len(data)),
	)

	if len(data) == 0 {
		return nil, s.failSpan(span, NewInvalidInputError("上传内容为空"))
	}
	ext := strings.ToLower(path.Ext(filename))
	if !allowedUploadExts[ext] {
		return nil, s.failSpan(span, NewInvalidInputError(fmt.Sprintf("不支持的文件类型: %s", ext)))
	}
	if sourceChannel == "" {
		sourceChannel = s.settings.SourceChannel
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, s.failSpan(span, fmt.Errorf("生成简历ID失败: %w", err))
	}
	resumeID := id.String()
	span.SetAttributes(attribute.String("resume.id", resumeID))

	// 先留存原始文件，解析失败时还能人工介入
	var objectKey string
	if s.components.Blobs != nil {
		objectKey, err = s.components.Blobs.StoreOriginal(ctx, resumeID, filename, data)
		if err != nil {
			s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("留存原始文件失败, 继续处理")
			objectKey = ""
		}
	}

	rawText := s.extractText(ctx, data, filename, ext)
	cleaned := parser.CleanText(rawText)
	contentHash := parser.ContentHash(rawText)
	span.SetAttributes(attribute.String("resume.content_hash", contentHash))

	dedup, err := s.gate.Check(ctx, contentHash)
	if err != nil {
		s.cleanupBlob(ctx, objectKey)
		return nil, s.failSpan(span, err)
	}
	if dedup.Duplicate {
		s.cleanupBlob(ctx, objectKey)
		s.logger.Info().
			Str("existing_resume_id", dedup.ExistingResumeID).
			Str("content_hash", contentHash).
			Msg("检测到重复上传")
		span.SetAttributes(attribute.Bool("upload.duplicate", true))
		span.SetStatus(codes.Ok, "")
		return &UploadResult{ResumeID: dedup.ExistingResumeID, Duplicate: true}, nil
	}

	rec := s.components.Parser.Parse(ctx, cleaned)
	rec.ID = resumeID
	rec.ContentHash = contentHash

	if err := s.components.Records.InsertResume(ctx, rec, sourceChannel, filename, objectKey); err != nil {
		if errors.Is(err, ErrDuplicateContent) {
			// 并发上传相同内容时唯一索引兜住了竞争，归并到重复分支
			s.cleanupBlob(ctx, objectKey)
			existing, findErr := s.components.Records.FindByHash(ctx, contentHash)
			if findErr == nil && existing != nil {
				s.gate.Commit(ctx, contentHash, existing.ID)
				span.SetAttributes(attribute.Bool("upload.duplicate", true))
				span.SetStatus(codes.Ok, "")
				return &UploadResult{ResumeID: existing.ID, Duplicate: true}, nil
			}
			return nil, s.failSpan(span, err)
		}
		s.gate.Rollback(ctx, contentHash)
		s.cleanupBlob(ctx, objectKey)
		return nil, s.failSpan(span, NewDatabaseError(resumeID, "插入简历记录失败: "+err.Error()))
	}
	s.gate.Commit(ctx, contentHash, resumeID)

	s.logger.Info().
		Str("resume_id", resumeID).
		Str("source", string(rec.Source)).
		Str("channel", sourceChannel).
		Msg("简历处理完成")
	span.SetAttributes(attribute.String("resume.parse_source", string(rec.Source)))
	span.SetStatus(codes.Ok, "")

	return &UploadResult{ResumeID: resumeID, ObjectKey: objectKey, Record: rec}, nil
}

// extractText 从上传内容取纯文本。
// 提取链全军覆没时返回固定提示文本，后续降级解析仍可产出记录
func (s *resumeServiceImpl) extractText(ctx context.Context, data []byte, filename, ext string) string {
	if s.components.TextProvider != nil {
		text, err := s.components.TextProvider.ExtractText(ctx, data, filename)
		if err != nil {
			s.logger.Warn().Err(err).Str("filename", filename).Msg("文本提取失败")
			return constants.UnableToExtractText
		}
		return text
	}
	if ext == ".txt" {
		return string(data)
	}
	return constants.UnableToExtractText
}

func (s *resumeServiceImpl) cleanupBlob(ctx context.Context, objectKey string) {
	if s.components.Blobs == nil || objectKey == "" {
		return
	}
	if err := s.components.Blobs.DeleteOriginal(ctx, objectKey); err != nil {
		s.logger.Warn().Err(err).Str("object_key", objectKey).Msg("清理多余文件副本失败")
	}
}

// GetResume 按ID取回已解析的简历记录
func (s *resumeServiceImpl) GetResume(ctx context.Context, resumeID string) (*types.ResumeRecord, error) {
	if resumeID == "" {
		return nil, NewInvalidInputError("简历ID不能为空")
	}
	rec, err := s.components.Records.FindByID(ctx, resumeID)
	if err != nil {
		return nil, NewDatabaseError(resumeID, "查询简历失败: "+err.Error())
	}
	if rec == nil {
		return nil, NewNotFoundError(resumeID)
	}
	return rec, nil
}

// DownloadOriginal 取回上传时留存的原始文件
func (s *resumeServiceImpl) DownloadOriginal(ctx context.Context, resumeID string) (*OriginalFile, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.DownloadOriginal")
	defer span.End()
	span.SetAttributes(attribute.String("resume.id", resumeID))

	filename, objectKey, err := s.resolveOriginal(ctx, resumeID)
	if err != nil {
		return nil, s.failSpan(span, err)
	}

	data, err := s.components.Blobs.RetrieveOriginal(ctx, objectKey)
	if err != nil {
		return nil, s.failSpan(span, NewStoreError(resumeID, "取回原始文件失败: "+err.Error()))
	}
	span.SetAttributes(attribute.Int("download.size_bytes", len(data)))
	span.SetStatus(codes.Ok, "")
	return &OriginalFile{Filename: filename, Data: data}, nil
}

// OriginalFileURL 生成原始文件的限时下载链接
func (s *resumeServiceImpl) OriginalFileURL(ctx context.Context, resumeID string, expiry time.Duration) (string, error) {
	_, objectKey, err := s.resolveOriginal(ctx, resumeID)
	if err != nil {
		return "", err
	}
	url, err := s.components.Blobs.PresignedURL(ctx, objectKey, expiry)
	if err != nil {
		return "", NewStoreError(resumeID, "生成下载链接失败: "+err.Error())
	}
	return url, nil
}

// resolveOriginal 定位原始文件的对象键。
// 上传时blob留存失败的记录没有对象键，按文件不存在处理
func (s *resumeServiceImpl) resolveOriginal(ctx context.Context, resumeID string) (string, string, error) {
	if resumeID == "" {
		return "", "", NewInvalidInputError("简历ID不能为空")
	}
	if s.components.Blobs == nil {
		return "", "", NewStoreError(resumeID, "对象存储未配置")
	}
	filename, objectKey, err := s.components.Records.FindOriginalFile(ctx, resumeID)
	if err != nil {
		return "", "", NewDatabaseError(resumeID, "查询原始文件元数据失败: "+err.Error())
	}
	if objectKey == "" {
		return "", "", NewNotFoundError(resumeID)
	}
	return filename, objectKey, nil
}

// MatchJob 对单份简历打分并持久化评分结果
func (s *resumeServiceImpl) MatchJob(ctx context.Context, resumeID string, jd *types.JobDescription) (*types.MatchScore, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.MatchJob")
	defer span.End()
	span.SetAttributes(attribute.String("resume.id", resumeID))

	if err := validateJD(jd); err != nil {
		return nil, s.failSpan(span, err)
	}
	rec, err := s.GetResume(ctx, resumeID)
	if err != nil {
		return nil, s.failSpan(span, err)
	}

	fp := JDFingerprint(jd)
	if cached := s.cachedScore(ctx, resumeID, fp); cached != nil {
		span.SetAttributes(attribute.Bool("score.cache_hit", true))
		span.SetStatus(codes.Ok, "")
		return cached, nil
	}
	// 缓存过期后落库的历史评分仍然有效，指纹相同无需重新打分
	if prev := s.persistedScore(ctx, resumeID, fp); prev != nil {
		span.SetAttributes(attribute.Bool("score.persisted_hit", true))
		span.SetStatus(codes.Ok, "")
		return prev, nil
	}

	score := s.components.Scorer.Score(ctx, rec, jd)
	span.SetAttributes(
		attribute.Float64("score.total", score.TotalScore),
		attribute.String("score.strategy", string(score.Strategy)),
	)

	s.persistScore(ctx, resumeID, jd, score)
	span.SetStatus(codes.Ok, "")
	return score, nil
}

// MatchAllResumes 对全部简历打分，按总分降序返回
func (s *resumeServiceImpl) MatchAllResumes(ctx context.Context, jd *types.JobDescription) ([]types.RankedMatch, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.MatchAllResumes")
	defer span.End()

	if err := validateJD(jd); err != nil {
		return nil, s.failSpan(span, err)
	}
	records, err := s.components.Records.ListResumes(ctx)
	if err != nil {
		return nil, s.failSpan(span, NewDatabaseError("", "列出简历失败: "+err.Error()))
	}
	span.SetAttributes(attribute.Int("resume.count", len(records)))

	ranked := make([]types.RankedMatch, 0, len(records))
	for _, rec := range records {
		score := s.components.Scorer.Score(ctx, rec, jd)
		s.persistScore(ctx, rec.ID, jd, score)
		ranked = append(ranked, types.RankedMatch{
			ResumeID: rec.ID,
			Name:     rec.Name,
			Score:    score,
		})
	}

	// 同分保持ListResumes给出的创建时间倒序
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
	})

	span.SetStatus(codes.Ok, "")
	return ranked, nil
}

// cachedScore 读打分缓存，缓存故障按未命中处理
func (s *resumeServiceImpl) cachedScore(ctx context.Context, resumeID, fp string) *types.MatchScore {
	if s.components.ScoreCache == nil {
		return nil
	}
	score, err := s.components.ScoreCache.GetCachedScore(ctx, resumeID, fp)
	if err != nil {
		s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("读取打分缓存失败")
		return nil
	}
	return score
}

// persistedScore 读落库的最近一次评分并回填缓存，查询故障按未命中处理
func (s *resumeServiceImpl) persistedScore(ctx context.Context, resumeID, fp string) *types.MatchScore {
	if s.components.Scores == nil {
		return nil
	}
	score, err := s.components.Scores.LatestScore(ctx, resumeID, fp)
	if err != nil {
		s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("查询历史评分失败")
		return nil
	}
	if score != nil && s.components.ScoreCache != nil {
		if err := s.components.ScoreCache.SetCachedScore(ctx, resumeID, fp, score); err != nil {
			s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("回填打分缓存失败")
		}
	}
	return score
}

// persistScore 保存评分结果并回填缓存，失败只记日志不影响打分返回
func (s *resumeServiceImpl) persistScore(ctx context.Context, resumeID string, jd *types.JobDescription, score *types.MatchScore) {
	fp := JDFingerprint(jd)
	if s.components.Scores != nil {
		if _, err := s.components.Scores.SaveScore(ctx, resumeID, fp, score); err != nil {
			s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("保存评分结果失败")
		}
	}
	if s.components.ScoreCache != nil {
		if err := s.components.ScoreCache.SetCachedScore(ctx, resumeID, fp, score); err != nil {
			s.logger.Warn().Err(err).Str("resume_id", resumeID).Msg("写入打分缓存失败")
		}
	}
}

func (s *resumeServiceImpl) failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func validateJD(jd *types.JobDescription) error {
	if jd == nil {
		return NewInvalidInputError("岗位描述不能为空")
	}
	if strings.TrimSpace(jd.Title) == "" && strings.TrimSpace(jd.Description) == "" {
		return NewInvalidInputError("岗位标题和描述不能同时为空")
	}
	return nil
}

// JDFingerprint 计算岗位描述的稳定指纹，评分缓存和历史查询的键。
// 结构体字段序固定，JSON序列化结果稳定
func JDFingerprint(jd *types.JobDescription) string {
	payload, err := json.Marshal(jd)
	if err != nil {
		payload = []byte(jd.Title + "\x00" + jd.Description)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
