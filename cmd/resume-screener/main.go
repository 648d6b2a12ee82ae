package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-screener-go/internal/agent"
	"resume-screener-go/internal/api/handler"
	"resume-screener-go/internal/api/router"
	"resume-screener-go/internal/config"
	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/scorer"
	"resume-screener-go/internal/storage"
	"resume-screener-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(logger.Logger))
	logger.Info().Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil {
		logger.Fatal().Msg("MySQL是必需的存储组件, 无法继续")
	}
	logger.Info().Msg("存储服务初始化成功")

	service, err := buildResumeService(ctx, cfg, storageManager)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历服务失败")
	}
	logger.Info().Msg("简历服务初始化成功")

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, handler.NewResumeHandler(service), cfg.Server.APIKey)
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号, 正在优雅退出")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// buildResumeService 装配解析、打分和存储组件
func buildResumeService(ctx context.Context, cfg *config.Config, storageManager *storage.Storage) (processor.ResumeService, error) {
	// 抽取和打分各自持有独立的采样参数
	extractModel := newChatModel(cfg, cfg.Extractor.ModelName, agent.GenerationParams{
		Temperature:     cfg.Extractor.Temperature,
		MaxOutputTokens: cfg.Extractor.MaxTokens,
	})
	extractTimeout := config.GetDuration(cfg.Extractor.ExtractionTimeout, 60*time.Second)
	extractor := parser.NewExtractor(extractModel, extractTimeout)

	heuristic := scorer.NewHeuristicScorer()
	scoreTimeout := config.GetDuration(cfg.Scorer.ScoreTimeout, 30*time.Second)
	var scoreModel = newChatModel(cfg, cfg.Scorer.ModelName, agent.GenerationParams{
		Temperature:     cfg.Scorer.Temperature,
		MaxOutputTokens: cfg.Scorer.MaxTokens,
	})
	if cfg.Scorer.DefaultStrategy == "heuristic" {
		// 模型置空后AIScorer永远走启发式路径
		scoreModel = nil
	}
	matchScorer := scorer.NewAIScorer(scoreModel, heuristic, scoreTimeout)

	textProvider, err := buildTextProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	compOpts := []processor.ComponentOpt{
		processor.WithcompTextprovider(textProvider),
		processor.WithcompParser(extractor),
		processor.WithcompScorer(matchScorer),
		processor.WithcompRecordstore(storageManager.MySQL),
		processor.WithcompScorestore(storageManager.MySQL),
	}
	// 接口装载typed nil会绕过服务层的nil检查, 必须逐个判空
	if storageManager.MinIO != nil {
		compOpts = append(compOpts, processor.WithcompBlobstore(storageManager.MinIO))
	}
	if storageManager.Redis != nil {
		compOpts = append(compOpts,
			processor.WithcompDedupcache(storageManager.Redis),
			processor.WithcompScorecache(storageManager.Redis))
	}

	setOpts := []processor.SettingOpt{
		processor.WithsetLogger(&logger.Logger),
		processor.WithsetTimelocation(time.Local),
	}

	return processor.NewResumeService(compOpts, setOpts)
}

// newChatModel 创建OpenAI兼容的聊天模型, 未配置密钥时返回nil让调用方降级。
// 返回接口类型, 避免typed nil装入接口后绕过下游的nil判断
func newChatModel(cfg *config.Config, modelName string, params agent.GenerationParams) model.ChatModel {
	if cfg.LLM.APIKey == "" {
		return nil
	}
	if modelName == "" {
		modelName = cfg.LLM.Model
	}
	m, err := agent.NewOpenAIChatModel(cfg.LLM.APIKey, modelName, cfg.LLM.APIURL, params)
	if err != nil {
		logger.Warn().Err(err).Str("model", modelName).Msg("创建聊天模型失败, 相关功能降级")
		return nil
	}
	return m
}

// buildTextProvider 组装文本提取链, 远程服务优先, 本地PDF解析兜底
func buildTextProvider(ctx context.Context, cfg *config.Config) (parser.DocumentTextProvider, error) {
	remote := parser.NewRemoteDocumentProvider(
		cfg.DocumentAI.Endpoint,
		cfg.DocumentAI.APIKey,
		time.Duration(cfg.DocumentAI.Timeout)*time.Second,
	)

	pdfExtractor, err := parser.NewPDFTextExtractor(ctx)
	if err != nil {
		return nil, err
	}
	local := parser.NewLocalPDFProvider(pdfExtractor)

	return parser.NewChainTextProvider(remote, local), nil
}
