package state

import (
	"sort"

	"insight-cli/internal/model"
)

// TagCount pairs a tag with how many analyzed notes carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Metrics is the dashboard summary of a workspace.
type Metrics struct {
	TotalNotes    int            `json:"total_notes"`
	Analyzed      int            `json:"analyzed"`
	AvgLikes      float64        `json:"avg_likes"`
	ActiveCookies int            `json:"active_cookies"`
	PerFolder     map[string]int `json:"per_folder"`
	TopTags       []TagCount     `json:"top_tags,omitempty"`
}

// Metrics computes the workspace summary. Folder counts are keyed by folder
// id; unfiled notes appear under the empty key.
func (w *Workspace) Metrics() Metrics {
	w.mu.RLock()
	defer w.mu.RUnlock()

	m := Metrics{PerFolder: make(map[string]int)}
	tagCounts := make(map[string]int)
	totalLikes := 0

	for _, r := range w.results {
		m.TotalNotes++
		totalLikes += r.Note.Stats.Likes
		m.PerFolder[r.Note.FolderID]++

		if r.Analysis != nil {
			m.Analyzed++
			for _, tag := range r.Analysis.Tags {
				tagCounts[tag]++
			}
		}
	}

	if m.TotalNotes > 0 {
		m.AvgLikes = float64(totalLikes) / float64(m.TotalNotes)
	}

	for _, c := range w.cookies {
		if c.Status == model.CookieActive {
			m.ActiveCookies++
		}
	}

	for tag, count := range tagCounts {
		m.TopTags = append(m.TopTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(m.TopTags, func(i, j int) bool {
		if m.TopTags[i].Count != m.TopTags[j].Count {
			return m.TopTags[i].Count > m.TopTags[j].Count
		}
		return m.TopTags[i].Tag < m.TopTags[j].Tag
	})
	if len(m.TopTags) > 10 {
		m.TopTags = m.TopTags[:10]
	}

	return m
}
