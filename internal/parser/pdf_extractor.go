package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-screener-go/internal/logger"
)

// PDFTextExtractor 使用Eino PDF Parser从PDF字节流提取纯文本
type PDFTextExtractor struct {
	parser *pdf.PDFParser
}

// NewPDFTextExtractor 初始化PDF文本提取器。
// ToPages为false，整个文档作为单个连续文本返回
func NewPDFTextExtractor(ctx context.Context) (*PDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	return &PDFTextExtractor{parser: p}, nil
}

// ExtractText 从字节数组提取PDF文本
func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractTextFromReader 从io.Reader提取PDF文本，多页结果合并为单个字符串
func (e *PDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF解析失败 (URI %s): %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF解析无结果 (URI %s)", uri)
	}

	var full bytes.Buffer
	for i, doc := range docs {
		full.WriteString(doc.Content)
		if i < len(docs)-1 {
			full.WriteString("\n\n")
		}
	}

	logger.Debug().
		Str("uri", uri).
		Int("chars", full.Len()).
		Dur("duration", time.Since(start)).
		Msg("PDF文本提取完成")
	return full.String(), nil
}
