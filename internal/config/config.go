package config

import (
	"os"
	"strconv"
	"time"
)

// ローカル開発専用のフォールバックトークン
// 公開環境では必ずAPI_TOKENを設定すること
const devFallbackToken = "my_strong_token"

// Config はサーバー設定
type Config struct {
	Port            string
	APIToken        string
	DBPath          string
	DownloadDir     string        // 空ならプラットフォーム既定
	MinInterval     time.Duration // ディスパッチ開始間隔の下限
	MaxConcurrent   int           // 同時ディスパッチ数の上限
	BrowserFallback bool          // ヘッドレスブラウザ戦略を有効化
}

// Load は環境変数から設定を組み立てる
func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		APIToken:        getenv("API_TOKEN", devFallbackToken),
		DBPath:          getenv("DB_PATH", "data/mediadl.db"),
		DownloadDir:     getenv("DOWNLOAD_DIR", ""),
		MinInterval:     time.Duration(getenvInt("RATE_MIN_INTERVAL_MS", 2000)) * time.Millisecond,
		MaxConcurrent:   getenvInt("RATE_MAX_CONCURRENT", 1),
		BrowserFallback: getenvBool("BROWSER_FALLBACK", false),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	case "":
		return def
	}
	return false
}
