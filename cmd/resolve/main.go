package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"mediadl/internal/resolver"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("使い方: go run cmd/resolve/main.go <動画ページURL>")
		fmt.Println("例: go run cmd/resolve/main.go https://www.tiktok.com/@user/video/7123456789012345678")
		os.Exit(1)
	}

	pageURL := os.Args[1]

	res := resolver.New(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	fmt.Printf("解決中: %s\n\n", pageURL)

	desc, err := res.Resolve(ctx, pageURL)
	if err != nil {
		log.Fatalf("解決に失敗: %v", err)
	}

	// 基本情報を表示
	fmt.Println("=== メディア情報 ===")
	fmt.Printf("ID: %s\n", desc.ID)
	fmt.Printf("ソース: %s\n", desc.Source)
	fmt.Printf("タイトル: %s\n", desc.Title)
	fmt.Printf("作成者: %s\n", desc.AuthorName)
	fmt.Printf("画質候補: %d件\n", len(desc.Qualities))
	for i, q := range desc.Qualities {
		fmt.Printf("  %d. [%s] %s\n", i+1, q.ID, q.Label)
	}
	if desc.IsFallback {
		fmt.Println("※ フォールバック戦略による結果（信頼度低）")
	}
	fmt.Println()

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		log.Fatalf("JSON出力に失敗: %v", err)
	}
	fmt.Println(string(data))
}
