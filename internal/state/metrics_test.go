package state

import (
	"testing"

	"insight-cli/internal/model"
)

func TestMetrics(t *testing.T) {
	w := newTestWorkspace(t)
	folder := w.AddFolder("Makeup", "")

	w.Prepend(model.AnalysisResult{
		ID:   "1",
		Note: model.NoteData{ID: "n1", FolderID: folder.ID, Stats: model.NoteStats{Likes: 100}},
		Analysis: &model.AIAnalysis{
			Tags: []string{"AI", "lipstick"},
		},
	})
	w.Prepend(model.AnalysisResult{
		ID:   "2",
		Note: model.NoteData{ID: "n2", Stats: model.NoteStats{Likes: 300}},
		Analysis: &model.AIAnalysis{
			Tags: []string{"AI"},
		},
	})
	w.Prepend(model.AnalysisResult{
		ID:   "3",
		Note: model.NoteData{ID: "n3", Stats: model.NoteStats{Likes: 200}},
	})

	w.AddCookie("session=a", "")
	w.AddCookie("session=b", "")

	m := w.Metrics()

	if m.TotalNotes != 3 {
		t.Errorf("TotalNotes = %d, want 3", m.TotalNotes)
	}
	if m.Analyzed != 2 {
		t.Errorf("Analyzed = %d, want 2", m.Analyzed)
	}
	if m.AvgLikes != 200 {
		t.Errorf("AvgLikes = %v, want 200", m.AvgLikes)
	}
	if m.ActiveCookies != 2 {
		t.Errorf("ActiveCookies = %d, want 2", m.ActiveCookies)
	}
	if m.PerFolder[folder.ID] != 1 {
		t.Errorf("PerFolder[%s] = %d, want 1", folder.ID, m.PerFolder[folder.ID])
	}
	if m.PerFolder[""] != 2 {
		t.Errorf("unfiled count = %d, want 2", m.PerFolder[""])
	}

	if len(m.TopTags) != 2 {
		t.Fatalf("TopTags = %v", m.TopTags)
	}
	if m.TopTags[0].Tag != "AI" || m.TopTags[0].Count != 2 {
		t.Errorf("top tag = %+v, want AI x2", m.TopTags[0])
	}
	if m.TopTags[1].Tag != "lipstick" || m.TopTags[1].Count != 1 {
		t.Errorf("second tag = %+v", m.TopTags[1])
	}
}

func TestMetricsEmptyWorkspace(t *testing.T) {
	w := newTestWorkspace(t)

	m := w.Metrics()
	if m.TotalNotes != 0 || m.Analyzed != 0 || m.AvgLikes != 0 || m.ActiveCookies != 0 {
		t.Errorf("empty workspace metrics = %+v", m)
	}
	if len(m.TopTags) != 0 {
		t.Errorf("TopTags = %v, want empty", m.TopTags)
	}
}
