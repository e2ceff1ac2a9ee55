// Package export writes analysis results as Markdown documents with YAML
// front matter.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"insight-cli/internal/model"
	"insight-cli/internal/state"
	"insight-cli/internal/util"

	"gopkg.in/yaml.v3"
)

type Export struct {
	ws *state.Workspace
}

type ExportAllOptions struct {
	Directory    string
	FolderFilter string // folder id, empty or "all" = everything
}

// FrontMatter is the YAML header of an exported note.
type FrontMatter struct {
	Title      string    `yaml:"title"`
	Source     string    `yaml:"source"`
	Author     string    `yaml:"author,omitempty"`
	ScrapedAt  time.Time `yaml:"scraped_at"`
	ExportedAt time.Time `yaml:"exported_at"`
	Likes      int       `yaml:"likes"`
	Collects   int       `yaml:"collects"`
	Comments   int       `yaml:"comments"`
	Shares     int       `yaml:"shares"`
	Tags       []string  `yaml:"tags,omitempty"`
}

func New(ws *state.Workspace) *Export {
	return &Export{ws: ws}
}

// ExportResult writes one result to outPath, or stdout.
func (e *Export) ExportResult(id, outPath string, stdout bool) error {
	result, ok := e.ws.Get(id)
	if !ok {
		return fmt.Errorf("result %q not found", id)
	}

	content, err := e.buildMarkdownContent(result)
	if err != nil {
		return fmt.Errorf("failed to build content: %w", err)
	}

	if stdout {
		fmt.Print(content)
		return nil
	}

	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Exported result to: %s\n", outPath)
	return nil
}

// ExportAll writes every result (optionally one folder's worth) into a
// directory, one file per result. Individual failures are reported and
// skipped.
func (e *Export) ExportAll(opts ExportAllOptions) error {
	var results []model.AnalysisResult
	if opts.FolderFilter == "" || opts.FolderFilter == model.FolderAll {
		results = e.ws.Results()
	} else {
		results = e.ws.FilteredBy(opts.FolderFilter)
	}

	if len(results) == 0 {
		fmt.Println("No results found matching criteria.")
		return nil
	}

	if err := os.MkdirAll(opts.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("Exporting %d results...\n", len(results))

	for _, result := range results {
		if err := e.exportSingle(result, opts.Directory); err != nil {
			fmt.Printf("Failed to export result %s (%s): %v\n", result.ID, result.Note.Title, err)
			continue
		}
	}

	fmt.Printf("Export completed: %d results\n", len(results))
	return nil
}

func (e *Export) exportSingle(result model.AnalysisResult, baseDir string) error {
	content, err := e.buildMarkdownContent(result)
	if err != nil {
		return err
	}

	dir := baseDir
	if result.Note.FolderID != "" {
		if folder, ok := e.ws.FolderByID(result.Note.FolderID); ok {
			dir = filepath.Join(baseDir, util.SlugifyTitle(folder.Name, 60))
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}
		}
	}

	filename := util.SafeFilename(result.Note.Title, result.ID, 120) + ".md"
	path := resolveFilenameCollision(filepath.Join(dir, filename))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (e *Export) buildMarkdownContent(result model.AnalysisResult) (string, error) {
	scrapedAt, err := time.Parse(time.RFC3339, result.ScrapedAt)
	if err != nil {
		scrapedAt = time.Now().UTC()
	}

	var tags []string
	if result.Analysis != nil {
		tags = result.Analysis.Tags
	}

	front := FrontMatter{
		Title:      result.Note.Title,
		Source:     result.Note.URL,
		Author:     result.Note.Author.Name,
		ScrapedAt:  scrapedAt,
		ExportedAt: time.Now().UTC(),
		Likes:      result.Note.Stats.Likes,
		Collects:   result.Note.Stats.Collects,
		Comments:   result.Note.Stats.Comments,
		Shares:     result.Note.Stats.Shares,
		Tags:       tags,
	}

	yamlBytes, err := yaml.Marshal(front)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var content strings.Builder
	content.WriteString("---\n")
	content.Write(yamlBytes)
	content.WriteString("---\n\n")

	content.WriteString("## Content\n\n")
	if result.Note.Content != "" {
		content.WriteString(result.Note.Content)
		content.WriteString("\n")
	} else {
		content.WriteString("*No content captured.*\n")
	}

	if result.Analysis == nil {
		content.WriteString("\n*Analysis pending.*\n")
		return content.String(), nil
	}

	if len(result.Analysis.ViralReasons) > 0 {
		content.WriteString("\n## Viral Factors\n\n")
		for _, reason := range result.Analysis.ViralReasons {
			content.WriteString("- " + reason + "\n")
		}
	}

	if len(result.Analysis.Improvements) > 0 {
		content.WriteString("\n## Improvements\n\n")
		for _, item := range result.Analysis.Improvements {
			content.WriteString("- " + item + "\n")
		}
	}

	if result.Analysis.UserPsychology != "" {
		content.WriteString("\n## Audience Psychology\n\n")
		content.WriteString(result.Analysis.UserPsychology)
		content.WriteString("\n")
	}

	if result.Analysis.RewriteSuggestion != "" {
		content.WriteString("\n## Rewrite Suggestion\n\n")
		content.WriteString(result.Analysis.RewriteSuggestion)
		content.WriteString("\n")
	}

	return content.String(), nil
}

func resolveFilenameCollision(originalPath string) string {
	if _, err := os.Stat(originalPath); os.IsNotExist(err) {
		return originalPath
	}

	dir := filepath.Dir(originalPath)
	ext := filepath.Ext(originalPath)
	base := strings.TrimSuffix(filepath.Base(originalPath), ext)

	counter := 2
	for {
		newPath := filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, counter, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}

		counter++
		if counter > 100 {
			return filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, time.Now().Unix(), ext))
		}
	}
}
