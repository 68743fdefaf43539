package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// playAddr/downloadAddrの文字列リテラルを直接探すパターン
var mediaURLPattern = regexp.MustCompile(`"(?:playAddr|downloadAddr)"\s*:\s*"(https?:[^"]+)"`)

// fallbackStrategy はJSON構造を無視してHTML全体を正規表現で走査する最終手段
// マークアップ変更に弱く信頼度が低いため IsFallback を立てて返す
type fallbackStrategy struct{}

func (s *fallbackStrategy) Name() string { return "text-scan" }

func (s *fallbackStrategy) Extract(ctx context.Context, page *Page) (*MediaDescriptor, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return scanForMediaURL(html, page.VideoID)
}

// scanForMediaURL は生HTMLからメディアURLリテラルを1つ探す
func scanForMediaURL(html, videoID string) (*MediaDescriptor, error) {
	m := mediaURLPattern.FindStringSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("no media url literal in page")
	}

	mediaURL, err := unescapeJSONString(m[1])
	if err != nil {
		return nil, fmt.Errorf("unescape media url: %w", err)
	}

	return &MediaDescriptor{
		ID:         videoID,
		Source:     "tiktok",
		Title:      DefaultTitle,
		Qualities:  []Quality{{ID: "orig", Label: "Original Quality", URL: mediaURL}},
		IsFallback: true,
	}, nil
}

// unescapeJSONString は \uXXXX や \/ を含むJSON文字列リテラルを復号する
func unescapeJSONString(s string) (string, error) {
	// strconv.Unquoteは \/ を受け付けないので先に展開する
	s = strings.ReplaceAll(s, `\/`, "/")
	return strconv.Unquote(`"` + s + `"`)
}
