package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-screener-go/internal/api/handler"
)

// RegisterRoutes 注册 API 路由。
// apiKey非空时对业务接口启用Bearer鉴权，健康检查始终放行
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, apiKey string) {
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")
	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				return key == apiKey, nil
			}),
		))
	}

	api.POST("/resume/upload", resumeHandler.HandleUpload)
	api.GET("/resume/:id", resumeHandler.HandleGetResume)
	api.GET("/resume/:id/download", resumeHandler.HandleDownload)
	api.POST("/match", resumeHandler.HandleMatch)
	api.POST("/match/all", resumeHandler.HandleMatchAll)
}
