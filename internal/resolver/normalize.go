package resolver

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`/video/(\d+)`)

// CleanURL はクエリパラメータを除去する
func CleanURL(raw string) string {
	if i := strings.Index(raw, "?"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// isShortLink は既知の短縮リンクかどうかを判定する
func isShortLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Host {
	case "vm.tiktok.com", "vt.tiktok.com":
		return true
	}
	return false
}

// extractVideoID は正規URLのパスから動画IDを取り出す
func extractVideoID(raw string) string {
	m := videoIDPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// followRedirect はリダイレクトを1回だけ手動で解決する
// 自動リダイレクトを無効化してLocationヘッダーを直接読み、
// リダイレクト応答でなければ元のURLをそのまま返す
func followRedirect(ctx context.Context, client *http.Client, raw string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", err
	}
	applyHeaders(req)

	noRedirect := *client
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
	}
	return raw, nil
}
