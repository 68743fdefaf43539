package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ブラウザ相当のヘッダー
// これがないとアップストリームに拒否されやすくなるため必須
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Referer":         "https://www.tiktok.com/",
	"Accept-Language": "en-US,en;q=0.9",
}

func applyHeaders(req *http.Request) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}

// Strategy は1つの抽出アルゴリズム
// 失敗してもチェーンが次の戦略へ進むだけでエラーは外へ出ない
type Strategy interface {
	Name() string
	Extract(ctx context.Context, page *Page) (*MediaDescriptor, error)
}

// Page は1回の解決の間だけ戦略間で共有されるページ情報
// HTMLは最初に必要になった時点で一度だけ取得される
type Page struct {
	URL     string
	VideoID string

	client   *http.Client
	html     string
	fetched  bool
	fetchErr error
}

// HTML はページ本文を返す（遅延取得、同一Pageでは1回のみ）
func (p *Page) HTML(ctx context.Context) (string, error) {
	if p.fetched {
		return p.html, p.fetchErr
	}
	p.fetched = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		p.fetchErr = err
		return "", err
	}
	applyHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fetchErr = err
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.fetchErr = fmt.Errorf("page returned status %d", resp.StatusCode)
		return "", p.fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.fetchErr = err
		return "", err
	}
	p.html = string(body)

	// 認証ページはこれ以上解析しても無駄なので即失敗させる
	if isVerificationPage(p.html) {
		p.html = ""
		p.fetchErr = fmt.Errorf("upstream served a verification page")
		return "", p.fetchErr
	}
	return p.html, nil
}

// isVerificationPage はアンチボット/認証ページを検出する
func isVerificationPage(html string) bool {
	markers := []string{
		"tiktok-verify-page",
		"security-check",
		"captcha-verify",
		"Verify to continue",
	}
	for _, m := range markers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}
