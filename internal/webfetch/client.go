package webfetch

import (
	"context"
	"time"

	"github.com/naozine/nz-html-fetch/pkg/htmlfetch"
)

// Client はヘッドレスブラウザによるページ取得クライアント
// ボット検出を避けるため常にステルスモードで起動する
type Client struct {
	fetcher *htmlfetch.Fetcher
}

// Options はクライアント作成オプション
type Options struct {
	Proxy       string // プロキシアドレス
	BrowserPath string // ブラウザ実行ファイルのパス
}

// FetchOptions はフェッチ実行オプション
type FetchOptions struct {
	Selector string        // このセレクタの出現を待つ
	WaitTime time.Duration // セレクタ待機のタイムアウト
}

// Result はフェッチ結果
type Result struct {
	URL      string        // リダイレクト後の最終URL
	HTML     string        // 描画後のHTML
	Duration time.Duration // 取得にかかった時間
}

// NewClient は新しいクライアントを作成しブラウザを起動する
func NewClient(opts *Options) (*Client, error) {
	var fetcherOpts []htmlfetch.Option
	if opts != nil {
		if opts.BrowserPath != "" {
			fetcherOpts = append(fetcherOpts, htmlfetch.WithBrowserPath(opts.BrowserPath))
		}
		if opts.Proxy != "" {
			fetcherOpts = append(fetcherOpts, htmlfetch.WithProxy(opts.Proxy))
		}
	}
	fetcherOpts = append(fetcherOpts, htmlfetch.WithStealth(true))

	fetcher := htmlfetch.New(fetcherOpts...)
	if err := fetcher.Start(); err != nil {
		return nil, err
	}
	return &Client{fetcher: fetcher}, nil
}

// Close はブラウザを終了する
func (c *Client) Close() error {
	if c.fetcher != nil {
		return c.fetcher.Close()
	}
	return nil
}

// FetchHTML は描画後のHTMLを取得する
func (c *Client) FetchHTML(ctx context.Context, url string, opts *FetchOptions) (*Result, error) {
	var fetchOpts []htmlfetch.FetchOption
	if opts != nil && opts.Selector != "" {
		timeout := 30 * time.Second
		if opts.WaitTime > 0 {
			timeout = opts.WaitTime
		}
		fetchOpts = append(fetchOpts, htmlfetch.WithSelector(opts.Selector, timeout))
	}

	result, err := c.fetcher.Fetch(ctx, url, fetchOpts...)
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:      result.FinalURL,
		HTML:     result.HTML,
		Duration: result.Duration,
	}, nil
}
