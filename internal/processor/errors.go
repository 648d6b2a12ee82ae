package processor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// 基础错误类型
var (
	ErrDuplicateContent = errors.New("简历内容重复")
	ErrInvalidInput     = errors.New("无效的上传输入")
	ErrRecordNotFound   = errors.New("简历记录不存在")
	ErrTextExtraction   = errors.New("提取简历文本失败")
	ErrStoreUnavailable = errors.New("存储服务不可用")
	ErrDatabaseFailed   = errors.New("数据库操作失败")
)

// ProcessError 包含详细上下文的处理错误。
// OpID是单次操作的追踪标识，同一次上传流程里的多个错误共享同一个ID
type ProcessError struct {
	ResumeID string
	OpID     string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 简历:%s, 追踪:%s): %s", e.BaseErr, e.Op, e.ResumeID, e.OpID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 简历:%s, 追踪:%s)", e.BaseErr, e.Op, e.ResumeID, e.OpID)
}

func (e *ProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProcessError(resumeID, op string, base error, detail string) error {
	return &ProcessError{
		ResumeID: resumeID,
		OpID:     uuid.NewString(),
		Op:       op,
		BaseErr:  base,
		Detail:   detail,
	}
}

// 错误构造函数
func NewDuplicateError(resumeID, detail string) error {
	return newProcessError(resumeID, "dedup", ErrDuplicateContent, detail)
}

func NewInvalidInputError(detail string) error {
	return newProcessError("", "validate", ErrInvalidInput, detail)
}

func NewNotFoundError(resumeID string) error {
	return newProcessError(resumeID, "lookup", ErrRecordNotFound, "")
}

func NewExtractionError(resumeID, detail string) error {
	return newProcessError(resumeID, "extract", ErrTextExtraction, detail)
}

func NewStoreError(resumeID, detail string) error {
	return newProcessError(resumeID, "store", ErrStoreUnavailable, detail)
}

func NewDatabaseError(resumeID, detail string) error {
	return newProcessError(resumeID, "database", ErrDatabaseFailed, detail)
}
