package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/logger"
)

// DocumentTextProvider 文档文本提取的统一入口。
// Available为false的提供方会被管线跳过而不是报错。
type DocumentTextProvider interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
	Available() bool
}

// RemoteDocumentProvider 调用外部文档智能服务的提取器，支持PDF和DOCX。
// 未配置endpoint时提供方自我禁用，管线降级到本地提取
type RemoteDocumentProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteDocumentProvider 创建远程文档提取器，endpoint为空时返回禁用实例
func NewRemoteDocumentProvider(endpoint, apiKey string, timeout time.Duration) *RemoteDocumentProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteDocumentProvider{
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Available 报告远程服务是否已配置
func (r *RemoteDocumentProvider) Available() bool {
	return r.endpoint != ""
}

type remoteExtractResponse struct {
	Text string `json:"text"`
}

// ExtractText 把文档字节流提交给远程服务并取回纯文本
func (r *RemoteDocumentProvider) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if !r.Available() {
		return "", fmt.Errorf("远程文档服务未配置")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建远程提取请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filepath.Base(filename))
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("远程提取请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取远程提取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("远程提取服务返回状态 %s: %s", resp.Status, string(body))
	}

	var parsed remoteExtractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("解析远程提取响应失败: %w", err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", fmt.Errorf("远程提取服务返回空文本")
	}
	return parsed.Text, nil
}

// LocalPDFProvider 本地PDF文本提取，远程服务禁用或失败时的兜底
type LocalPDFProvider struct {
	extractor *PDFTextExtractor
}

// NewLocalPDFProvider 创建本地PDF提取器包装
func NewLocalPDFProvider(extractor *PDFTextExtractor) *LocalPDFProvider {
	return &LocalPDFProvider{extractor: extractor}
}

// Available 本地提取器只要初始化成功就可用
func (l *LocalPDFProvider) Available() bool {
	return l.extractor != nil
}

// ExtractText 本地提取仅支持PDF，其他格式上抛错误交给链式提取器跳过
func (l *LocalPDFProvider) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if l.extractor == nil {
		return "", fmt.Errorf("本地PDF提取器未初始化")
	}
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return "", fmt.Errorf("本地提取器不支持该格式: %s", filepath.Ext(filename))
	}
	return l.extractor.ExtractText(ctx, data, filename)
}

// ChainTextProvider 按顺序尝试多个提供方，全部失败时降级为占位文本而不是报错。
// 占位文本仍会进入解析管线，最终产出一条需要人工复核的回退记录
type ChainTextProvider struct {
	providers []DocumentTextProvider
}

// NewChainTextProvider 创建链式文本提取器
func NewChainTextProvider(providers ...DocumentTextProvider) *ChainTextProvider {
	return &ChainTextProvider{providers: providers}
}

// Available 至少有一个可用提供方即可用
func (c *ChainTextProvider) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// ExtractText 逐个尝试可用的提供方，成功即返回
func (c *ChainTextProvider) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		text, err := p.ExtractText(ctx, data, filename)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			logger.Warn().Err(err).Str("filename", filename).Msg("文本提取提供方失败，尝试下一个")
		}
	}

	logger.Warn().Str("filename", filename).Msg("所有文本提取提供方均失败，使用降级占位文本")
	return constants.UnableToExtractText, nil
}

var _ DocumentTextProvider = (*RemoteDocumentProvider)(nil)
var _ DocumentTextProvider = (*LocalPDFProvider)(nil)
var _ DocumentTextProvider = (*ChainTextProvider)(nil)
