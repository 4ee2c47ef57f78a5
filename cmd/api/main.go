package main

import (
	"context"

	"askdocs/controllers"
	"askdocs/core"
	"askdocs/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to start", "error", err)
	}

	server := createServer(application)
	logger.Infow("Listening", "port", cfg.Port, "store", cfg.Store)
	if err := server.Run(":" + cfg.Port); err != nil {
		logger.Fatalw("Server stopped", "error", err)
	}
}

func createServer(a *app.App) *gin.Engine {
	if !a.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// set up http server
	engine := gin.New()
	engine.Use(gin.Recovery())
	err := engine.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}
	engine.MaxMultipartMemory = 8 << 20

	engine.Use(controllers.CORS(a.Config.UIDomain))
	engine.Use(controllers.RequestLogger(a.Logger.Named("http")))

	router := controllers.Router{
		HealthController: &controllers.HealthController{
			Store:  a.Store,
			Logger: a.Logger.With("controller", "health"),
		},
		DocumentsController: &controllers.DocumentsController{
			Documents:      a.Documents,
			Logger:         a.Logger.With("controller", "documents"),
			MaxUploadBytes: a.Config.MaxUploadBytes,
		},
		ChatController: &controllers.ChatController{
			Assistant: a.Assistant,
			Logger:    a.Logger.With("controller", "chat"),
		},
	}

	router.RegisterRoutes(engine)
	return engine
}
