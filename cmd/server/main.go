package main

import (
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mediadl/internal/config"
	"mediadl/internal/fetcher"
	"mediadl/internal/handlers"
	"mediadl/internal/limiter"
	"mediadl/internal/orchestrator"
	"mediadl/internal/resolver"
	"mediadl/internal/storage"
	"mediadl/internal/version"
	"mediadl/internal/webfetch"
)

func main() {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	cfg := config.Load()

	// ジョブ履歴DB
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	jobRepo := storage.NewJobRepository(db)

	// ヘッドレスブラウザ戦略（任意、起動失敗なら無効のまま続行）
	var browser *webfetch.Client
	if cfg.BrowserFallback {
		browser, err = webfetch.NewClient(nil)
		if err != nil {
			log.Printf("browser fallback disabled: %v", err)
			browser = nil
		} else {
			defer browser.Close()
		}
	}

	res := resolver.New(&resolver.Options{Browser: browser})
	sched := limiter.New(cfg.MinInterval, cfg.MaxConcurrent)
	defer sched.Stop()
	orch := orchestrator.New(res, fetcher.New(cfg.DownloadDir), sched, jobRepo)

	// Echoインスタンスの作成
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// ルートの登録
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	// /api以下は共有シークレットで保護する
	api := e.Group("/api")
	api.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:x-api-token",
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIToken)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		},
	}))

	apiHandler := handlers.NewAPIHandler(orch)
	api.POST("/video-info", apiHandler.VideoInfo)
	api.POST("/download", apiHandler.Download)
	api.POST("/convert-mp3", apiHandler.ConvertMP3)

	jobHandler := handlers.NewJobHandler(jobRepo)
	api.GET("/jobs", jobHandler.List)
	api.GET("/jobs/stats", jobHandler.Stats)
	api.GET("/jobs/:id", jobHandler.Get)

	// サーバー起動
	log.Printf("Starting mediadl v%s on port %s", version.Version, cfg.Port)
	if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
