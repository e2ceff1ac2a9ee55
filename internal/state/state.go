// Package state maintains the authoritative workspace: the result
// collection, folders, session cookies, the active-folder filter, and the
// multi-select set. Every mutation is mirrored into the persistence port as
// a fire-and-forget write; a crash between the in-memory change and the
// mirror can lose the last mutation, which is acceptable for a client-side
// cache.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"insight-cli/internal/kv"
	"insight-cli/internal/model"
)

// ErrReservedFolder is returned on attempts to delete the "all" folder.
var ErrReservedFolder = fmt.Errorf("the %q folder cannot be deleted", model.FolderAll)

// Workspace is safe for concurrent use; the MCP server reads it from
// handler goroutines.
type Workspace struct {
	mu     sync.RWMutex
	store  kv.Store
	logger *log.Logger

	session      model.Session
	results      []model.AnalysisResult
	folders      []model.Folder
	cookies      []model.Cookie
	selection    map[string]bool
	activeFolder string
}

func defaultFolders() []model.Folder {
	return []model.Folder{
		{ID: model.FolderAll, Name: "All Notes", Icon: "fa-layer-group"},
	}
}

// Open loads all persisted workspace keys from the store.
func Open(store kv.Store) (*Workspace, error) {
	w := &Workspace{
		store:        store,
		logger:       log.New(os.Stderr, "", log.LstdFlags),
		selection:    make(map[string]bool),
		activeFolder: model.FolderAll,
	}

	if err := w.load(); err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return w, nil
}

func (w *Workspace) load() error {
	if err := loadJSON(w.store, kv.KeyResults, &w.results); err != nil {
		return err
	}
	if err := loadJSON(w.store, kv.KeyFolders, &w.folders); err != nil {
		return err
	}
	if err := loadJSON(w.store, kv.KeyCookies, &w.cookies); err != nil {
		return err
	}

	var selected []string
	if err := loadJSON(w.store, kv.KeySelection, &selected); err != nil {
		return err
	}
	for _, id := range selected {
		w.selection[id] = true
	}

	w.session.Token = loadString(w.store, kv.KeyToken)
	w.session.UserEmail = loadString(w.store, kv.KeyUserEmail)
	w.session.LocalMode = loadString(w.store, kv.KeyLocalMode) == "true"
	w.session.LocalAPIKey = loadString(w.store, kv.KeyLocalAPIKey)

	if len(w.folders) == 0 {
		w.folders = defaultFolders()
	}
	return nil
}

func loadJSON(store kv.Store, key string, dst interface{}) error {
	raw, ok, err := store.Load(key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("corrupt %q entry: %w", key, err)
	}
	return nil
}

func loadString(store kv.Store, key string) string {
	raw, ok, err := store.Load(key)
	if err != nil || !ok {
		return ""
	}
	return string(raw)
}

// mirror persists one key without blocking the mutation that triggered it.
func (w *Workspace) mirror(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		w.logger.Printf("Warning: failed to encode %q: %v", key, err)
		return
	}
	if err := w.store.Save(key, raw); err != nil {
		w.logger.Printf("Warning: failed to persist %q: %v", key, err)
	}
}

func (w *Workspace) mirrorString(key, value string) {
	if err := w.store.Save(key, []byte(value)); err != nil {
		w.logger.Printf("Warning: failed to persist %q: %v", key, err)
	}
}

// ---------- Session ----------

func (w *Workspace) Session() model.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session
}

// SetHostedSession records a login. Hosted mode and local mode are mutually
// exclusive.
func (w *Workspace) SetHostedSession(token, email string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session = model.Session{Token: token, UserEmail: email}
	w.mirrorString(kv.KeyToken, token)
	w.mirrorString(kv.KeyUserEmail, email)
	w.mirrorString(kv.KeyLocalMode, "")
	w.mirrorString(kv.KeyLocalAPIKey, "")
}

// SetLocalSession switches to bring-your-own-key mode.
func (w *Workspace) SetLocalSession(apiKey string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session = model.Session{LocalMode: true, LocalAPIKey: apiKey}
	w.mirrorString(kv.KeyLocalMode, "true")
	w.mirrorString(kv.KeyLocalAPIKey, apiKey)
	w.mirrorString(kv.KeyToken, "")
	w.mirrorString(kv.KeyUserEmail, "")
}

// Logout wipes the whole workspace back to its initial shape.
func (w *Workspace) Logout() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session = model.Session{}
	w.results = nil
	w.cookies = nil
	w.folders = defaultFolders()
	w.selection = make(map[string]bool)
	w.activeFolder = model.FolderAll

	for _, key := range []string{
		kv.KeyToken, kv.KeyUserEmail, kv.KeyLocalMode, kv.KeyLocalAPIKey,
		kv.KeyResults, kv.KeyCookies, kv.KeyFolders, kv.KeySelection,
	} {
		if err := w.store.Delete(key); err != nil {
			w.logger.Printf("Warning: failed to clear %q: %v", key, err)
		}
	}
}

// ---------- Results ----------

// Results returns the full collection, most recent first.
func (w *Workspace) Results() []model.AnalysisResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.AnalysisResult(nil), w.results...)
}

// Get returns one result by id.
func (w *Workspace) Get(id string) (model.AnalysisResult, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, r := range w.results {
		if r.ID == id {
			return r, true
		}
	}
	return model.AnalysisResult{}, false
}

// Prepend inserts a new result at the head of the collection, keeping the
// most-recent-first ordering.
func (w *Workspace) Prepend(r model.AnalysisResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.results = append([]model.AnalysisResult{r}, w.results...)
	w.mirror(kv.KeyResults, w.results)
}

// UpdateAnalysis replaces the analysis of the result owning noteID.
func (w *Workspace) UpdateAnalysis(noteID string, analysis *model.AIAnalysis) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.results {
		if w.results[i].Note.ID == noteID {
			w.results[i].Analysis = analysis
			w.mirror(kv.KeyResults, w.results)
			return true
		}
	}
	return false
}

// DeleteOne removes a single result by id, dropping it from the selection
// set if present.
func (w *Workspace) DeleteOne(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.results[:0]
	found := false
	for _, r := range w.results {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return false
	}

	w.results = kept
	if w.selection[id] {
		delete(w.selection, id)
		w.mirror(kv.KeySelection, w.selectionIDs())
	}
	w.mirror(kv.KeyResults, w.results)
	return true
}

// ---------- Filter ----------

// SetActiveFolder changes the read-side filter. Unknown ids are accepted;
// they simply produce an empty view.
func (w *Workspace) SetActiveFolder(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeFolder = id
}

func (w *Workspace) ActiveFolder() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.activeFolder
}

// Filtered projects the collection through the active folder, preserving
// the underlying order. The projection never mutates the collection.
func (w *Workspace) Filtered() []model.AnalysisResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filteredLocked(w.activeFolder)
}

// FilteredBy projects through an explicit folder id.
func (w *Workspace) FilteredBy(folderID string) []model.AnalysisResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filteredLocked(folderID)
}

func (w *Workspace) filteredLocked(folderID string) []model.AnalysisResult {
	if folderID == model.FolderAll {
		return append([]model.AnalysisResult(nil), w.results...)
	}

	var view []model.AnalysisResult
	for _, r := range w.results {
		if r.Note.FolderID == folderID {
			view = append(view, r)
		}
	}
	return view
}

// ---------- Selection ----------

// ToggleSelect flips membership of id in the selection set and reports the
// new state. Unknown result ids are rejected.
func (w *Workspace) ToggleSelect(id string) (selected, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	exists := false
	for _, r := range w.results {
		if r.ID == id {
			exists = true
			break
		}
	}
	if !exists {
		return false, false
	}

	if w.selection[id] {
		delete(w.selection, id)
	} else {
		w.selection[id] = true
	}
	w.mirror(kv.KeySelection, w.selectionIDs())
	return w.selection[id], true
}

// Selection returns the selected ids, sorted for stable output.
func (w *Workspace) Selection() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.selectionIDs()
}

func (w *Workspace) selectionIDs() []string {
	ids := make([]string, 0, len(w.selection))
	for id := range w.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearSelection empties the selection set.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection = make(map[string]bool)
	w.mirror(kv.KeySelection, []string{})
}

// BulkDelete removes every selected result and clears the selection.
// Returns how many results were removed.
func (w *Workspace) BulkDelete() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.selection) == 0 {
		return 0
	}

	kept := w.results[:0]
	removed := 0
	for _, r := range w.results {
		if w.selection[r.ID] {
			removed++
			continue
		}
		kept = append(kept, r)
	}

	w.results = kept
	w.selection = make(map[string]bool)
	w.mirror(kv.KeyResults, w.results)
	w.mirror(kv.KeySelection, []string{})
	return removed
}

// ---------- Folders ----------

func (w *Workspace) Folders() []model.Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Folder(nil), w.folders...)
}

// FolderByID resolves a folder.
func (w *Workspace) FolderByID(id string) (model.Folder, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, f := range w.folders {
		if f.ID == id {
			return f, true
		}
	}
	return model.Folder{}, false
}

// AddFolder creates a user folder with a generated id.
func (w *Workspace) AddFolder(name, icon string) model.Folder {
	w.mu.Lock()
	defer w.mu.Unlock()

	if icon == "" {
		icon = "fa-folder"
	}
	folder := model.Folder{
		ID:   "f_" + strconv.FormatInt(time.Now().UnixNano(), 10),
		Name: name,
		Icon: icon,
	}
	w.folders = append(w.folders, folder)
	w.mirror(kv.KeyFolders, w.folders)
	return folder
}

// DeleteFolder removes a folder. Member results are kept but their folder
// reference is cleared, and if the deleted folder was the active filter the
// filter resets to "all". The reserved folder is refused.
func (w *Workspace) DeleteFolder(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id == model.FolderAll {
		return ErrReservedFolder
	}

	kept := w.folders[:0]
	found := false
	for _, f := range w.folders {
		if f.ID == id {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return fmt.Errorf("folder %q not found", id)
	}
	w.folders = kept

	changed := false
	for i := range w.results {
		if w.results[i].Note.FolderID == id {
			w.results[i].Note.FolderID = ""
			changed = true
		}
	}

	if w.activeFolder == id {
		w.activeFolder = model.FolderAll
	}

	w.mirror(kv.KeyFolders, w.folders)
	if changed {
		w.mirror(kv.KeyResults, w.results)
	}
	return nil
}

// ---------- Cookies ----------

func (w *Workspace) Cookies() []model.Cookie {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Cookie(nil), w.cookies...)
}

// AddCookie stores a session credential locally. Server-side registration
// is the caller's concern.
func (w *Workspace) AddCookie(value, note string) model.Cookie {
	w.mu.Lock()
	defer w.mu.Unlock()

	cookie := model.Cookie{
		ID:       strconv.FormatInt(time.Now().UnixNano(), 10),
		Value:    value,
		Status:   model.CookieActive,
		Note:     note,
		LastUsed: "-",
	}
	w.cookies = append(w.cookies, cookie)
	w.mirror(kv.KeyCookies, w.cookies)
	return cookie
}

// RemoveCookie deletes a credential by id.
func (w *Workspace) RemoveCookie(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.cookies[:0]
	found := false
	for _, c := range w.cookies {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	w.cookies = kept
	if found {
		w.mirror(kv.KeyCookies, w.cookies)
	}
	return found
}

// ActiveCookie returns the first credential with active status. Submission
// is refused when none exists.
func (w *Workspace) ActiveCookie() (model.Cookie, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, c := range w.cookies {
		if c.Status == model.CookieActive {
			return c, true
		}
	}
	return model.Cookie{}, false
}

// MarkCookieUsed stamps the credential's last-used time.
func (w *Workspace) MarkCookieUsed(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.cookies {
		if w.cookies[i].ID == id {
			w.cookies[i].LastUsed = time.Now().UTC().Format("2006-01-02 15:04")
			w.mirror(kv.KeyCookies, w.cookies)
			return
		}
	}
}
