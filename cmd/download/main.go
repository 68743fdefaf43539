package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"mediadl/internal/fetcher"
	"mediadl/internal/limiter"
	"mediadl/internal/orchestrator"
	"mediadl/internal/resolver"
	"mediadl/internal/transcode"
)

// デスクトップ向けのローカル操作をHTTP APIと同じオーケストレーターで提供する
func main() {
	var (
		qualityID = flag.String("quality", "", "画質ID（hd/sdなど、省略時は最高画質）")
		dir       = flag.String("dir", "", "保存先フォルダ（省略時は既定のダウンロードフォルダ）")
		toMP3     = flag.Bool("mp3", false, "ダウンロード後にMP3へ変換する")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("使い方: go run cmd/download/main.go [オプション] <動画ページURL>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	pageURL := flag.Arg(0)

	sched := limiter.New(2*time.Second, 1)
	defer sched.Stop()

	orch := orchestrator.New(resolver.New(nil), fetcher.New(*dir), sched, nil)

	ctx := context.Background()

	result, err := orch.Download(ctx, orchestrator.DownloadRequest{
		URL:       pageURL,
		QualityID: *qualityID,
		Dir:       *dir,
	})
	if err != nil {
		log.Fatalf("ダウンロードに失敗: %v", err)
	}

	fmt.Printf("保存しました: %s\n", result.Path)
	fmt.Printf("タイトル: %s (%s)\n", result.Descriptor.Title, result.Quality.Label)

	if *toMP3 {
		audioPath, err := transcode.ExtractMP3(ctx, result.Path)
		if err != nil {
			log.Fatalf("MP3変換に失敗: %v", err)
		}
		fmt.Printf("MP3: %s\n", audioPath)
	}
}
