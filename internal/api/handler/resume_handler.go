package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/tracing"
	"resume-screener-go/internal/types"
)

// 上传大小上限, 32MB足够覆盖扫描版PDF
const maxUploadBytes = 32 << 20

// ResumeHandler 简历接口处理器，把HTTP请求翻译为服务层调用
type ResumeHandler struct {
	service processor.ResumeService
}

// NewResumeHandler 创建一个新的简历处理器
func NewResumeHandler(service processor.ResumeService) *ResumeHandler {
	return &ResumeHandler{service: service}
}

// MatchRequest 单份简历匹配请求
type MatchRequest struct {
	ResumeID string               `json:"resume_id"`
	Job      types.JobDescription `json:"job"`
}

// MatchAllRequest 批量匹配请求
type MatchAllRequest struct {
	Job types.JobDescription `json:"job"`
}

// HandleUpload 处理简历上传请求(multipart表单, 字段名file)
func (h *ResumeHandler) HandleUpload(c context.Context, ctx *app.RequestContext) {
	span := trace.SpanFromContext(c)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		h.writeError(c, ctx, consts.StatusBadRequest, fmt.Errorf("文件未找到: %w", err))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		h.writeError(c, ctx, consts.StatusRequestEntityTooLarge,
			fmt.Errorf("文件过大: %d字节", fileHeader.Size))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.writeError(c, ctx, consts.StatusInternalServerError, fmt.Errorf("打开文件失败: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(c, ctx, consts.StatusInternalServerError, fmt.Errorf("读取文件失败: %w", err))
		return
	}

	sourceChannel := ctx.PostForm("source_channel")
	span.SetAttributes(
		attribute.String("upload.filename",
			tracing.SafeAttributeValue("filename", fileHeader.Filename, tracing.DefaultMaxLength)),
		attribute.Int64("upload.size_bytes", fileHeader.Size),
	)

	result, err := h.service.Upload(c, fileHeader.Filename, data, sourceChannel)
	if err != nil {
		h.writeServiceError(c, ctx, err)
		return
	}

	status := consts.StatusCreated
	if result.Duplicate {
		status = consts.StatusOK
	}
	ctx.JSON(status, result)
}

// HandleGetResume 按ID返回解析后的简历记录
func (h *ResumeHandler) HandleGetResume(c context.Context, ctx *app.RequestContext) {
	resumeID := ctx.Param("id")
	rec, err := h.service.GetResume(c, resumeID)
	if err != nil {
		h.writeServiceError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

// 预签名下载链接的有效期
const presignedURLExpiry = 15 * time.Minute

// HandleDownload 下载原始简历文件。
// 带presign=true参数时不回传文件内容，只返回限时下载链接
func (h *ResumeHandler) HandleDownload(c context.Context, ctx *app.RequestContext) {
	resumeID := ctx.Param("id")

	if ctx.Query("presign") == "true" {
		url, err := h.service.OriginalFileURL(c, resumeID, presignedURLExpiry)
		if err != nil {
			h.writeServiceError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"url": url, "expires_in_seconds": int(presignedURLExpiry.Seconds())})
		return
	}

	file, err := h.service.DownloadOriginal(c, resumeID)
	if err != nil {
		h.writeServiceError(c, ctx, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(file.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	ctx.Data(consts.StatusOK, contentType, file.Data)
}

// HandleMatch 对单份简历打分
func (h *ResumeHandler) HandleMatch(c context.Context, ctx *app.RequestContext) {
	var req MatchRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		h.writeError(c, ctx, consts.StatusBadRequest, fmt.Errorf("请求体无效: %w", err))
		return
	}

	score, err := h.service.MatchJob(c, req.ResumeID, &req.Job)
	if err != nil {
		h.writeServiceError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, score)
}

// HandleMatchAll 对全部简历打分并按总分降序返回
func (h *ResumeHandler) HandleMatchAll(c context.Context, ctx *app.RequestContext) {
	var req MatchAllRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		h.writeError(c, ctx, consts.StatusBadRequest, fmt.Errorf("请求体无效: %w", err))
		return
	}

	ranked, err := h.service.MatchAllResumes(c, &req.Job)
	if err != nil {
		h.writeServiceError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"count": len(ranked), "results": ranked})
}

// writeServiceError 把服务层的哨兵错误映射为HTTP状态码
func (h *ResumeHandler) writeServiceError(c context.Context, ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, processor.ErrInvalidInput):
		h.writeError(c, ctx, consts.StatusBadRequest, err)
	case errors.Is(err, processor.ErrRecordNotFound):
		h.writeError(c, ctx, consts.StatusNotFound, err)
	case errors.Is(err, processor.ErrTextExtraction):
		h.writeError(c, ctx, consts.StatusUnprocessableEntity, err)
	case errors.Is(err, processor.ErrStoreUnavailable):
		h.writeError(c, ctx, consts.StatusServiceUnavailable, err)
	default:
		h.writeError(c, ctx, consts.StatusInternalServerError, err)
	}
}

func (h *ResumeHandler) writeError(c context.Context, ctx *app.RequestContext, status int, err error) {
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	ctx.JSON(status, utils.H{"error": err.Error()})
}
