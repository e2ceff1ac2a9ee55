package mcp

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"insight-cli/internal/model"
	"insight-cli/internal/util"
)

// handleSearchNotes handles the search_notes tool
func (s *Server) handleSearchNotes(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, _ := arguments["query"].(string)
	folder, _ := arguments["folder"].(string)

	limit := 20
	if l, ok := arguments["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var results []model.AnalysisResult
	if folder == "" || folder == model.FolderAll {
		results = s.ws.Results()
	} else {
		results = s.ws.FilteredBy(folder)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var matched []model.AnalysisResult
	for _, r := range results {
		if query == "" || matchesQuery(r, query) {
			matched = append(matched, r)
		}
		if len(matched) >= limit {
			break
		}
	}

	if len(matched) == 0 {
		return mcp.NewToolResultText("No notes found matching the search criteria."), nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Found %d notes:\n\n", len(matched)))

	for i, r := range matched {
		output.WriteString(fmt.Sprintf("**%d. %s**\n", i+1, r.Note.Title))
		output.WriteString(fmt.Sprintf("ID: %s\n", r.ID))
		output.WriteString(fmt.Sprintf("URL: %s\n", r.Note.URL))
		output.WriteString(fmt.Sprintf("Likes: %s | Collects: %s\n",
			util.FormatCount(r.Note.Stats.Likes), util.FormatCount(r.Note.Stats.Collects)))

		if r.Note.FolderID != "" {
			if f, ok := s.ws.FolderByID(r.Note.FolderID); ok {
				output.WriteString(fmt.Sprintf("Folder: %s\n", f.Name))
			}
		}

		if r.Analysis != nil {
			output.WriteString("Analysis: Available\n")
		} else {
			output.WriteString("Analysis: Pending\n")
		}
		output.WriteString("\n")
	}

	return mcp.NewToolResultText(output.String()), nil
}

func matchesQuery(r model.AnalysisResult, query string) bool {
	if strings.Contains(strings.ToLower(r.Note.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Note.Content), query) {
		return true
	}
	if r.Analysis != nil {
		for _, tag := range r.Analysis.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				return true
			}
		}
	}
	return false
}

// handleGetNote handles the get_note tool
func (s *Server) handleGetNote(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	id, ok := arguments["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Result id is required"), nil
	}

	result, found := s.ws.Get(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("Result %q not found", id)), nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", result.Note.Title))
	output.WriteString(fmt.Sprintf("**ID:** %s\n", result.ID))
	output.WriteString(fmt.Sprintf("**URL:** %s\n", result.Note.URL))
	output.WriteString(fmt.Sprintf("**Author:** %s\n", result.Note.Author.Name))
	output.WriteString(fmt.Sprintf("**Scraped:** %s\n", result.ScrapedAt))
	output.WriteString(fmt.Sprintf("**Engagement:** %d likes, %d collects, %d comments, %d shares\n",
		result.Note.Stats.Likes, result.Note.Stats.Collects,
		result.Note.Stats.Comments, result.Note.Stats.Shares))

	if result.Note.FolderID != "" {
		if f, ok := s.ws.FolderByID(result.Note.FolderID); ok {
			output.WriteString(fmt.Sprintf("**Folder:** %s\n", f.Name))
		}
	}

	output.WriteString("\n## Content\n\n")
	output.WriteString(result.Note.Content)
	output.WriteString("\n")

	if result.Analysis == nil {
		output.WriteString("\n*Analysis not yet available.*\n")
		return mcp.NewToolResultText(output.String()), nil
	}

	if len(result.Analysis.ViralReasons) > 0 {
		output.WriteString("\n## Viral Factors\n\n")
		for _, reason := range result.Analysis.ViralReasons {
			output.WriteString("- " + reason + "\n")
		}
	}

	if len(result.Analysis.Improvements) > 0 {
		output.WriteString("\n## Improvements\n\n")
		for _, item := range result.Analysis.Improvements {
			output.WriteString("- " + item + "\n")
		}
	}

	if result.Analysis.UserPsychology != "" {
		output.WriteString("\n## Audience Psychology\n\n")
		output.WriteString(result.Analysis.UserPsychology)
		output.WriteString("\n")
	}

	if result.Analysis.RewriteSuggestion != "" {
		output.WriteString("\n## Rewrite Suggestion\n\n")
		output.WriteString(result.Analysis.RewriteSuggestion)
		output.WriteString("\n")
	}

	return mcp.NewToolResultText(output.String()), nil
}

// handleListFolders handles the list_folders tool
func (s *Server) handleListFolders(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	folders := s.ws.Folders()
	metrics := s.ws.Metrics()

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Found %d folders:\n\n", len(folders)))

	for _, f := range folders {
		count := metrics.PerFolder[f.ID]
		if f.ID == model.FolderAll {
			count = metrics.TotalNotes
		}
		output.WriteString(fmt.Sprintf("- **%s** (id: %s): %d notes\n", f.Name, f.ID, count))
	}

	unfiled := metrics.PerFolder[""]
	if unfiled > 0 {
		output.WriteString(fmt.Sprintf("- **Unfiled**: %d notes\n", unfiled))
	}

	return mcp.NewToolResultText(output.String()), nil
}

// handleStats handles the workspace_stats tool
func (s *Server) handleStats(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	m := s.ws.Metrics()

	var output strings.Builder
	output.WriteString("Workspace Statistics:\n\n")
	output.WriteString(fmt.Sprintf("- Total notes: %d\n", m.TotalNotes))
	output.WriteString(fmt.Sprintf("- Analyzed: %d\n", m.Analyzed))
	output.WriteString(fmt.Sprintf("- Average likes: %.1f\n", m.AvgLikes))
	output.WriteString(fmt.Sprintf("- Active cookies: %d\n", m.ActiveCookies))

	if len(m.TopTags) > 0 {
		output.WriteString("\nTop tags:\n")
		for _, tc := range m.TopTags {
			output.WriteString(fmt.Sprintf("- %s (%d)\n", tc.Tag, tc.Count))
		}
	}

	return mcp.NewToolResultText(output.String()), nil
}
