package resolver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"mediadl/internal/webfetch"
)

// Options はリゾルバ生成オプション
type Options struct {
	PageTimeout time.Duration    // ページ取得のタイムアウト（デフォルト60秒）
	APITimeout  time.Duration    // リゾルバAPIのタイムアウト（デフォルト15秒）
	APIBase     string           // 公開リゾルバAPIのベースURL（テスト用に差し替え可能）
	Browser     *webfetch.Client // ヘッドレスブラウザ（nilで無効）
}

// Resolver はページURLをMediaDescriptorへ解決する
// 可変状態を持たないため異なるURLへの並行呼び出しに安全
type Resolver struct {
	client  *http.Client
	chain   []Strategy
	youtube *youtubeProvider
}

// New は戦略チェーンを固定順で組み立てる
func New(opts *Options) *Resolver {
	if opts == nil {
		opts = &Options{}
	}
	pageTimeout := opts.PageTimeout
	if pageTimeout == 0 {
		pageTimeout = 60 * time.Second
	}
	apiTimeout := opts.APITimeout
	if apiTimeout == 0 {
		apiTimeout = 15 * time.Second
	}
	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}

	chain := []Strategy{
		&apiStrategy{client: &http.Client{Timeout: apiTimeout}, base: apiBase},
		&scrapeStrategy{},
		&fallbackStrategy{},
	}
	if opts.Browser != nil {
		chain = append(chain, &browserStrategy{client: opts.Browser})
	}

	return &Resolver{
		client:  &http.Client{Timeout: pageTimeout},
		chain:   chain,
		youtube: &youtubeProvider{},
	}
}

// Resolve はページURLから記述子を取得する
// 戦略単位の失敗はここで回収し、全滅した場合のみResolutionErrorを返す
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (*MediaDescriptor, error) {
	if isYouTubeURL(pageURL) {
		desc, err := r.youtube.Resolve(ctx, pageURL)
		if err != nil {
			return nil, &ResolutionError{URL: pageURL, Reason: err.Error()}
		}
		return desc, nil
	}

	// 正規化: クエリ除去と短縮リンクの展開（最大1回）
	canonical := CleanURL(pageURL)
	if isShortLink(canonical) {
		resolved, err := followRedirect(ctx, r.client, canonical)
		if err != nil {
			return nil, &ResolutionError{URL: pageURL, Reason: "short link: " + err.Error()}
		}
		canonical = CleanURL(resolved)
	}

	// IDが取れないと重複判定もファイル名も作れないのでここで打ち切る
	videoID := extractVideoID(canonical)
	if videoID == "" {
		return nil, &ResolutionError{URL: pageURL, Reason: "no video id in url path"}
	}

	page := &Page{URL: canonical, VideoID: videoID, client: r.client}

	var lastErr error
	for _, strategy := range r.chain {
		desc, err := strategy.Extract(ctx, page)
		if err != nil {
			log.Printf("resolver: strategy %s failed for %s: %v", strategy.Name(), canonical, err)
			lastErr = err
			continue
		}
		if len(desc.Qualities) == 0 {
			lastErr = fmt.Errorf("strategy %s produced no qualities", strategy.Name())
			continue
		}
		return desc, nil
	}

	reason := "all strategies exhausted"
	if lastErr != nil {
		reason = fmt.Sprintf("all strategies exhausted, last error: %v", lastErr)
	}
	return nil, &ResolutionError{URL: pageURL, Reason: reason}
}
