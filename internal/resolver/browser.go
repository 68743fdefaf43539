package resolver

import (
	"context"

	"mediadl/internal/webfetch"
)

// browserStrategy はヘッドレスブラウザで描画したHTMLから抽出する戦略
// 重量級なので軽い戦略が全て失敗した場合のみ呼ばれ、必須依存ではない
type browserStrategy struct {
	client *webfetch.Client
}

func (s *browserStrategy) Name() string { return "headless-browser" }

func (s *browserStrategy) Extract(ctx context.Context, page *Page) (*MediaDescriptor, error) {
	result, err := s.client.FetchHTML(ctx, page.URL, nil)
	if err != nil {
		return nil, err
	}

	// 描画後のHTMLに対して通常のスキーマ解析を再適用する
	desc, err := extractFromHTML(result.HTML, page.VideoID)
	if err == nil {
		return desc, nil
	}

	// 最後に正規表現走査も試す
	if desc, scanErr := scanForMediaURL(result.HTML, page.VideoID); scanErr == nil {
		return desc, nil
	}
	return nil, err
}
