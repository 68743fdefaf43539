package resolver

import (
	"context"
	"fmt"
	"regexp"

	simplejson "github.com/bitly/go-simplejson"
)

// embeddedSchema は埋め込みJSONスキーマの1世代分
type embeddedSchema struct {
	name    string
	pattern *regexp.Regexp
	parse   func(raw []byte, videoID string) (*MediaDescriptor, error)
}

// 既知のスキーマ（新しい世代から順に試す）
var embeddedSchemas = []embeddedSchema{
	{
		name:    "__UNIVERSAL_DATA_FOR_REHYDRATION__",
		pattern: regexp.MustCompile(`<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__"[^>]*>(.+?)</script>`),
		parse:   parseUniversalData,
	},
	{
		name:    "SIGI_STATE",
		pattern: regexp.MustCompile(`<script id="SIGI_STATE" type="application/json">(.+?)</script>`),
		parse:   parseSigiState,
	},
	{
		name:    "__NEXT_DATA__",
		pattern: regexp.MustCompile(`<script id="__NEXT_DATA__" type="application/json">(.+?)</script>`),
		parse:   parseNextData,
	},
}

// scrapeStrategy はページHTMLの埋め込みJSONから抽出する戦略
type scrapeStrategy struct{}

func (s *scrapeStrategy) Name() string { return "page-scrape" }

func (s *scrapeStrategy) Extract(ctx context.Context, page *Page) (*MediaDescriptor, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return extractFromHTML(html, page.VideoID)
}

// extractFromHTML は既知のスキーマを新しい順に試す
// 1つのスキーマの解析失敗は次へ進むだけで、全滅して初めてエラー
func extractFromHTML(html, videoID string) (*MediaDescriptor, error) {
	var lastErr error
	for _, schema := range embeddedSchemas {
		m := schema.pattern.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		desc, err := schema.parse([]byte(m[1]), videoID)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", schema.name, err)
			continue
		}
		return desc, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no known embedded data script in page")
}

func parseUniversalData(raw []byte, videoID string) (*MediaDescriptor, error) {
	js, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, err
	}
	item := js.GetPath("__DEFAULT_SCOPE__", "webapp.video-detail", "itemInfo", "itemStruct")
	return itemToDescriptor(item, videoID)
}

func parseSigiState(raw []byte, videoID string) (*MediaDescriptor, error) {
	js, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, err
	}
	item := js.GetPath("ItemModule", videoID)
	return itemToDescriptor(item, videoID)
}

func parseNextData(raw []byte, videoID string) (*MediaDescriptor, error) {
	js, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, err
	}
	item := js.GetPath("props", "pageProps", "itemInfo", "itemStruct")
	return itemToDescriptor(item, videoID)
}

// itemToDescriptor はitemStruct形式のJSONから記述子を組み立てる
// フィールドはどれも欠けていることがあるため、すべて任意扱いで読む
func itemToDescriptor(item *simplejson.Json, videoID string) (*MediaDescriptor, error) {
	play, _ := item.GetPath("video", "playAddr").String()
	download, _ := item.GetPath("video", "downloadAddr").String()
	if play == "" && download == "" {
		return nil, fmt.Errorf("item has no playable address")
	}

	id, _ := item.Get("id").String()
	if id == "" {
		id = videoID
	}
	title, _ := item.Get("desc").String()
	if title == "" {
		title = DefaultTitle
	}
	cover, _ := item.GetPath("video", "cover").String()
	author, _ := item.GetPath("author", "nickname").String()

	// downloadAddrの方が透かしなしのことが多いので優先する
	var qualities []Quality
	if download != "" && download != play {
		qualities = append(qualities, Quality{ID: "dl", Label: "No Watermark", URL: download})
	}
	if play != "" {
		qualities = append(qualities, Quality{ID: "orig", Label: "Original Quality", URL: play})
	}

	return &MediaDescriptor{
		ID:         id,
		Source:     "tiktok",
		Title:      title,
		CoverURL:   cover,
		AuthorName: author,
		Qualities:  qualities,
	}, nil
}
