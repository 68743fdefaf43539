package resolver

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// youtubeProvider はYouTube Shorts向けのリゾルバ
// TikTok系と違いページ解析は不要で、ライブラリ経由で直接URLを得る
type youtubeProvider struct {
	client ytdl.Client
}

// isYouTubeURL はYouTube系のホストかどうかを判定する
func isYouTubeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be"
}

func (p *youtubeProvider) Resolve(ctx context.Context, pageURL string) (*MediaDescriptor, error) {
	video, err := p.client.GetVideoContext(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// 音声付きの動画フォーマットのみを対象にする
	var candidates []ytdl.Format
	for _, f := range video.Formats.WithAudioChannels() {
		if strings.HasPrefix(f.MimeType, "video/") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no playable formats for %s", video.ID)
	}

	// 高解像度順に並べる
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Height != candidates[j].Height {
			return candidates[i].Height > candidates[j].Height
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})

	var qualities []Quality
	for i := range candidates {
		f := &candidates[i]
		streamURL, err := p.client.GetStreamURLContext(ctx, video, f)
		if err != nil {
			continue
		}
		label := f.QualityLabel
		if label == "" {
			label = f.Quality
		}
		qualities = append(qualities, Quality{
			ID:    strconv.Itoa(f.ItagNo),
			Label: label,
			URL:   streamURL,
		})
	}
	if len(qualities) == 0 {
		return nil, fmt.Errorf("no stream urls for %s", video.ID)
	}

	// サムネイルは最大サイズを選ぶ
	var cover string
	var best uint
	for _, t := range video.Thumbnails {
		if t.Width >= best {
			best = t.Width
			cover = t.URL
		}
	}

	title := video.Title
	if title == "" {
		title = DefaultTitle
	}

	return &MediaDescriptor{
		ID:         video.ID,
		Source:     "youtube",
		Title:      title,
		CoverURL:   cover,
		AuthorName: video.Author,
		Qualities:  qualities,
	}, nil
}
