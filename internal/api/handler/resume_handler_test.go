package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/api/handler"
	"resume-screener-go/internal/api/router"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/types"
)

// stubService 按预设返回的服务实现
type stubService struct {
	uploadResult *processor.UploadResult
	uploadErr    error
	record       *types.ResumeRecord
	recordErr    error
	score        *types.MatchScore
	scoreErr     error
	ranked       []types.RankedMatch
	file         *processor.OriginalFile
	fileURL      string
	fileErr      error
}

func (s *stubService) Upload(_ context.Context, _ string, _ []byte, _ string) (*processor.UploadResult, error) {
	return s.uploadResult, s.uploadErr
}

func (s *stubService) GetResume(_ context.Context, id string) (*types.ResumeRecord, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	if s.record == nil || s.record.ID != id {
		return nil, processor.NewNotFoundError(id)
	}
	return s.record, nil
}

func (s *stubService) DownloadOriginal(_ context.Context, _ string) (*processor.OriginalFile, error) {
	return s.file, s.fileErr
}

func (s *stubService) OriginalFileURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return s.fileURL, s.fileErr
}

func (s *stubService) MatchJob(_ context.Context, _ string, _ *types.JobDescription) (*types.MatchScore, error) {
	return s.score, s.scoreErr
}

func (s *stubService) MatchAllResumes(_ context.Context, _ *types.JobDescription) ([]types.RankedMatch, error) {
	return s.ranked, s.scoreErr
}

var _ processor.ResumeService = (*stubService)(nil)

func newTestEngine(svc processor.ResumeService, apiKey string) *server.Hertz {
	h := server.New()
	router.RegisterRoutes(h, handler.NewResumeHandler(svc), apiKey)
	return h
}

func multipartUpload(t *testing.T, filename string, content []byte) (*ut.Body, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &ut.Body{Body: bytes.NewReader(buf.Bytes()), Len: buf.Len()}, w.FormDataContentType()
}

func TestHandleUpload_Created(t *testing.T) {
	svc := &stubService{
		uploadResult: &processor.UploadResult{ResumeID: "r-1", Duplicate: false},
	}
	h := newTestEngine(svc, "")

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4 fake"))
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/upload", body,
		ut.Header{Key: "Content-Type", Value: contentType})

	assert.Equal(t, 201, resp.Result().StatusCode())
	var result processor.UploadResult
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &result))
	assert.Equal(t, "r-1", result.ResumeID)
	assert.False(t, result.Duplicate)
}

func TestHandleUpload_DuplicateReturns200(t *testing.T) {
	svc := &stubService{
		uploadResult: &processor.UploadResult{ResumeID: "r-existing", Duplicate: true},
	}
	h := newTestEngine(svc, "")

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4 fake"))
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/upload", body,
		ut.Header{Key: "Content-Type", Value: contentType})

	assert.Equal(t, 200, resp.Result().StatusCode())
	var result processor.UploadResult
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &result))
	assert.True(t, result.Duplicate)
	assert.Equal(t, "r-existing", result.ResumeID)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	h := newTestEngine(&stubService{}, "")
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/upload", nil)
	assert.Equal(t, 400, resp.Result().StatusCode())
}

func TestHandleUpload_InvalidInputMapsTo400(t *testing.T) {
	svc := &stubService{uploadErr: processor.NewInvalidInputError("不支持的文件类型: .exe")}
	h := newTestEngine(svc, "")

	body, contentType := multipartUpload(t, "resume.exe", []byte("MZ"))
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/upload", body,
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, 400, resp.Result().StatusCode())
}

func TestHandleGetResume(t *testing.T) {
	svc := &stubService{
		record: &types.ResumeRecord{ID: "r-42", Name: "Li Lei"},
	}
	h := newTestEngine(svc, "")

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-42", nil)
	assert.Equal(t, 200, resp.Result().StatusCode())
	var rec types.ResumeRecord
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &rec))
	assert.Equal(t, "Li Lei", rec.Name)

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/missing", nil)
	assert.Equal(t, 404, resp.Result().StatusCode())
}

func TestHandleDownload(t *testing.T) {
	svc := &stubService{
		file: &processor.OriginalFile{Filename: "resume.pdf", Data: []byte("%PDF-1.4 fake")},
	}
	h := newTestEngine(svc, "")

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-1/download", nil)
	assert.Equal(t, 200, resp.Result().StatusCode())
	assert.Equal(t, []byte("%PDF-1.4 fake"), resp.Result().Body())
	assert.Equal(t, "application/pdf", string(resp.Result().Header.ContentType()))
	assert.Contains(t, resp.Result().Header.Get("Content-Disposition"), `"resume.pdf"`)
}

func TestHandleDownload_Presigned(t *testing.T) {
	svc := &stubService{fileURL: "https://blobs.local/resume/r-1/original.pdf?signed=1"}
	h := newTestEngine(svc, "")

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-1/download?presign=true", nil)
	assert.Equal(t, 200, resp.Result().StatusCode())
	var payload struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &payload))
	assert.Equal(t, svc.fileURL, payload.URL)
}

func TestHandleDownload_NotFound(t *testing.T) {
	svc := &stubService{fileErr: processor.NewNotFoundError("r-missing")}
	h := newTestEngine(svc, "")

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-missing/download", nil)
	assert.Equal(t, 404, resp.Result().StatusCode())
}

func TestHandleMatch(t *testing.T) {
	svc := &stubService{
		score: &types.MatchScore{TotalScore: 78.5, Strategy: types.StrategyHeuristic},
	}
	h := newTestEngine(svc, "")

	reqBody := `{"resume_id":"r-1","job":{"title":"Backend Engineer","description":"Go services"}}`
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/match",
		&ut.Body{Body: bytes.NewReader([]byte(reqBody)), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"})

	assert.Equal(t, 200, resp.Result().StatusCode())
	var score types.MatchScore
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &score))
	assert.InDelta(t, 78.5, score.TotalScore, 0.001)
}

func TestHandleMatchAll(t *testing.T) {
	svc := &stubService{
		ranked: []types.RankedMatch{
			{ResumeID: "r-2", Name: "High", Score: &types.MatchScore{TotalScore: 90}},
			{ResumeID: "r-1", Name: "Low", Score: &types.MatchScore{TotalScore: 40}},
		},
	}
	h := newTestEngine(svc, "")

	reqBody := `{"job":{"title":"Engineer","description":"any"}}`
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/match/all",
		&ut.Body{Body: bytes.NewReader([]byte(reqBody)), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"})

	assert.Equal(t, 200, resp.Result().StatusCode())
	var payload struct {
		Count   int                 `json:"count"`
		Results []types.RankedMatch `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, "r-2", payload.Results[0].ResumeID)
}

func TestAPIKeyAuth(t *testing.T) {
	svc := &stubService{record: &types.ResumeRecord{ID: "r-1", Name: "X"}}
	h := newTestEngine(svc, "secret-key")

	// 无凭证被拒
	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-1", nil)
	assert.Equal(t, 401, resp.Result().StatusCode())

	// 正确凭证放行
	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/resume/r-1", nil,
		ut.Header{Key: "Authorization", Value: "Bearer secret-key"})
	assert.Equal(t, 200, resp.Result().StatusCode())

	// 健康检查不需要凭证
	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, 200, resp.Result().StatusCode())
}

func TestHandleMatch_ServiceFailure(t *testing.T) {
	svc := &stubService{scoreErr: fmt.Errorf("存储不可用")}
	h := newTestEngine(svc, "")

	reqBody := `{"resume_id":"r-1","job":{"title":"Engineer","description":"any"}}`
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/match",
		&ut.Body{Body: bytes.NewReader([]byte(reqBody)), Len: len(reqBody)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 500, resp.Result().StatusCode())
}
