// Package submit drives the batch analysis workflow: an ordered list of
// URLs is processed front-to-back, one request in flight at a time, and
// individual failures never abort the batch.
package submit

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"insight-cli/internal/client"
	"insight-cli/internal/model"
)

// Preconditions are checked before any network call is made.
var (
	ErrNoURLs        = fmt.Errorf("no URLs to submit")
	ErrNoCredentials = fmt.Errorf("no active cookie available")
)

// ItemError records one failed item, keyed by its position in the batch.
type ItemError struct {
	Index int // 0-based position in the submitted list
	URL   string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("link %d (%s): %v", e.Index+1, e.URL, e.Err)
}

// Outcome is the fold result of a batch run. Added preserves submission
// order (the state layer prepends, so its view ends up newest-first).
type Outcome struct {
	Added  []model.AnalysisResult
	Errors []ItemError
}

// ResultSink receives each successful result as it completes. The sink is
// the loop's only side effect.
type ResultSink interface {
	Prepend(model.AnalysisResult)
}

// Progress is invoked before each item is submitted, with 1-based i.
type Progress func(i, n int, url string)

// Runner executes batches against one backend client.
type Runner struct {
	client *client.Client
	logger *log.Logger
	now    func() time.Time
}

func New(c *client.Client) *Runner {
	return &Runner{
		client: c,
		logger: log.New(os.Stderr, "", log.LstdFlags),
		now:    time.Now,
	}
}

// SetLogger redirects the runner's progress log, e.g. into a --log file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Run submits urls sequentially. Requests are deliberately serialized, never
// parallel, to avoid hammering the backend and burning the session cookie.
// A failed item is recorded and the loop moves on; there is no retry and no
// partial-success rollup beyond the returned Outcome. Context cancellation
// stops the loop between iterations without touching results already added.
func (r *Runner) Run(ctx context.Context, urls []string, folderID string, creds client.Credentials, sink ResultSink, progress Progress) (Outcome, error) {
	if len(urls) == 0 {
		return Outcome{}, ErrNoURLs
	}
	if creds == nil {
		return Outcome{}, ErrNoCredentials
	}

	var out Outcome

	for i, postURL := range urls {
		if err := ctx.Err(); err != nil {
			r.logger.Printf("Batch interrupted after %d/%d items: %v", i, len(urls), err)
			return out, err
		}

		if progress != nil {
			progress(i+1, len(urls), postURL)
		}
		r.logger.Printf("Processing (%d of %d): %s", i+1, len(urls), postURL)

		data, err := r.client.Analyze(ctx, postURL, folderID, creds)
		if err != nil {
			r.logger.Printf("Link %d failed: %v", i+1, err)
			out.Errors = append(out.Errors, ItemError{Index: i, URL: postURL, Err: err})
			continue
		}

		result := r.buildResult(data, folderID, i)
		if sink != nil {
			sink.Prepend(result)
		}
		out.Added = append(out.Added, result)
	}

	r.logger.Printf("Batch completed: %d succeeded, %d failed", len(out.Added), len(out.Errors))
	return out, nil
}

// buildResult maps one backend payload into a workspace result. The note id
// gets a local disambiguator so two submissions of the same post in one
// batch stay distinct.
func (r *Runner) buildResult(data *client.AnalyzeData, folderID string, index int) model.AnalysisResult {
	stats := model.NoteStats{}
	if data.Stats != nil {
		stats = *data.Stats
	}

	author := model.Author{Name: "Unknown"}
	if data.Author != nil {
		author = *data.Author
	}

	return model.AnalysisResult{
		ID:        data.ID.String(),
		Status:    model.StatusCompleted,
		ScrapedAt: r.now().UTC().Format(time.RFC3339),
		Note: model.NoteData{
			ID:         "n_" + strconv.FormatInt(r.now().UnixNano(), 10) + "_" + strconv.Itoa(index),
			Title:      data.Title,
			Content:    data.Content,
			URL:        data.OriginalURL,
			CoverImage: data.CoverImage,
			Stats:      stats,
			Author:     author,
			FolderID:   folderID,
		},
		Analysis: &model.AIAnalysis{
			ViralReasons:   data.ViralReasons,
			Improvements:   data.Improvements,
			UserPsychology: data.Psychology,
			Tags:           []string{"AI"},
		},
	}
}
