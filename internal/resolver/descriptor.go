package resolver

import "fmt"

// Quality は1つの画質候補
type Quality struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// DefaultTitle はタイトルが取得できなかった場合のラベル
const DefaultTitle = "Short Video"

// MediaDescriptor は解決結果の正規形
// Qualitiesは高画質順で、先頭がデフォルト
// URLは署名付きの短命なものなので保存・再利用してはいけない
type MediaDescriptor struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	CoverURL   string    `json:"cover,omitempty"`
	AuthorName string    `json:"author,omitempty"`
	Qualities  []Quality `json:"qualities"`
	IsFallback bool      `json:"isFallback,omitempty"`
}

// SelectQuality は指定インデックスの画質を返す（範囲外は先頭）
func (d *MediaDescriptor) SelectQuality(index int) Quality {
	if index < 0 || index >= len(d.Qualities) {
		return d.Qualities[0]
	}
	return d.Qualities[index]
}

// QualityByID はIDで画質を検索（見つからなければ先頭）
func (d *MediaDescriptor) QualityByID(id string) Quality {
	for _, q := range d.Qualities {
		if q.ID == id {
			return q
		}
	}
	return d.Qualities[0]
}

// Filename はダウンロード時の既定ファイル名
func (d *MediaDescriptor) Filename() string {
	return fmt.Sprintf("%s_%s.mp4", d.Source, d.ID)
}

// ResolutionError は全戦略が失敗したことを示す
type ResolutionError struct {
	URL    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %s: %s", e.URL, e.Reason)
}
