package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultAPIBase = "https://www.tikwm.com"

// apiStrategy は公開リゾルバAPI (tikwm) を使う戦略
type apiStrategy struct {
	client *http.Client
	base   string
}

func (s *apiStrategy) Name() string { return "resolver-api" }

// apiResponse はtikwmのレスポンス形式
// codeが0以外はHTTP 200でも失敗扱い
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Cover  string `json:"cover"`
		Play   string `json:"play"`
		HDPlay string `json:"hdplay"`
		Author struct {
			Nickname string `json:"nickname"`
		} `json:"author"`
	} `json:"data"`
}

func (s *apiStrategy) Extract(ctx context.Context, page *Page) (*MediaDescriptor, error) {
	endpoint := fmt.Sprintf("%s/api/?url=%s", s.base, url.QueryEscape(page.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	applyHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver api returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("resolver api: %w", err)
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("resolver api code %d: %s", body.Code, body.Msg)
	}

	data := body.Data
	if data.Play == "" && data.HDPlay == "" {
		return nil, fmt.Errorf("resolver api returned no media url")
	}

	// 高画質を先頭に、URLが同一なら1つだけ
	var qualities []Quality
	if data.HDPlay != "" && data.HDPlay != data.Play {
		qualities = append(qualities, Quality{ID: "hd", Label: "HD (No Watermark)", URL: s.absolute(data.HDPlay)})
	}
	if data.Play != "" {
		qualities = append(qualities, Quality{ID: "sd", Label: "Standard (No Watermark)", URL: s.absolute(data.Play)})
	}

	id := data.ID
	if id == "" {
		id = page.VideoID
	}
	title := data.Title
	if title == "" {
		title = DefaultTitle
	}

	desc := &MediaDescriptor{
		ID:         id,
		Source:     "tiktok",
		Title:      title,
		AuthorName: data.Author.Nickname,
		Qualities:  qualities,
	}
	if data.Cover != "" {
		desc.CoverURL = s.absolute(data.Cover)
	}
	return desc, nil
}

// absolute は相対パスをAPIベースで絶対URLにする
// tikwmはキャッシュ済みメディアを相対パスで返すことがある
func (s *apiStrategy) absolute(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return s.base + u
}
