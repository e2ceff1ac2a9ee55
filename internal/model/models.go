package model

// Result status values. A result only ever enters the collection as
// StatusCompleted; the other states exist for payloads the backend may
// return for asynchronous analyses.
const (
	StatusPending   = "pending"
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Cookie status values.
const (
	CookieActive  = "active"
	CookieInvalid = "invalid"
	CookieExpired = "expired"
)

// FolderAll is the reserved folder id meaning "no filter". It is always
// present and can never be deleted.
const FolderAll = "all"

type NoteStats struct {
	Likes    int `json:"likes"`
	Collects int `json:"collects"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

type Author struct {
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Followers int    `json:"followers"`
}

// NoteData is the denormalized snapshot of a scraped post.
type NoteData struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	URL        string    `json:"url"`
	CoverImage string    `json:"cover_image,omitempty"`
	Stats      NoteStats `json:"stats"`
	Author     Author    `json:"author"`
	PostedAt   string    `json:"posted_at,omitempty"`
	FolderID   string    `json:"folder_id,omitempty"` // empty = unfiled
}

// AIAnalysis holds the backend's analysis output. A nil AIAnalysis on a
// result means the analysis stage has not completed yet.
type AIAnalysis struct {
	ViralReasons      []string `json:"viral_reasons"`
	Improvements      []string `json:"improvements"`
	UserPsychology    string   `json:"user_psychology"`
	RewriteSuggestion string   `json:"rewrite_suggestion,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// AnalysisResult is one processed item in the workspace.
type AnalysisResult struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	ScrapedAt string      `json:"scraped_at"`
	Note      NoteData    `json:"note"`
	Analysis  *AIAnalysis `json:"analysis,omitempty"`
}

// Folder is a user-defined grouping label for results.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Cookie is an opaque session credential required by the backend to scrape
// on the user's behalf. Status transitions arrive from the backend; the
// client never refreshes a cookie itself.
type Cookie struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
	LastUsed string `json:"last_used,omitempty"`
}

// Session is the locally persisted authentication state.
type Session struct {
	Token       string
	UserEmail   string
	LocalMode   bool
	LocalAPIKey string
}

// LoggedIn reports whether the session can authorize backend calls.
func (s Session) LoggedIn() bool {
	return s.Token != "" || s.LocalMode
}
