package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"insight-cli/internal/client"
	"insight-cli/internal/config"
	"insight-cli/internal/export"
	"insight-cli/internal/extract"
	"insight-cli/internal/kv"
	"insight-cli/internal/mcp"
	"insight-cli/internal/model"
	"insight-cli/internal/rewrite"
	"insight-cli/internal/state"
	"insight-cli/internal/submit"
	"insight-cli/internal/util"
	"insight-cli/internal/version"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	backendURL string

	cfg       config.Config
	store     kv.Store
	workspace *state.Workspace
	api       *client.Client
)

func init() {
	cobra.OnInitialize(initWorkspace)
}

func initWorkspace() {
	cfg = config.Load()

	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create workspace directory: %v", err)
	}

	var err error
	store, err = kv.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open workspace database: %v", err)
	}

	workspace, err = state.Open(store)
	if err != nil {
		log.Fatalf("Failed to load workspace: %v", err)
	}

	api = client.New(cfg.BackendURL, cfg.Timeout())
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "insight-cli",
		Short: "A CLI client for the note analytics backend",
		Long:  "Submit post links for scraping and AI analysis, then browse, organize and export the results locally",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to workspace SQLite file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL")

	var loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend and store the session token",
		RunE:  runLogin,
	}

	var (
		loginEmail    string
		loginPassword string
	)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (required)")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	var registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create a backend account",
		RunE:  runRegister,
	}

	var (
		registerEmail    string
		registerPassword string
		registerAPIKey   string
	)

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email (required)")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (required)")
	registerCmd.Flags().StringVar(&registerAPIKey, "api-key", "", "Gemini API key stored with the account")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	var localCmd = &cobra.Command{
		Use:   "local",
		Short: "Switch to local (bring-your-own-key) mode",
		RunE:  runLocal,
	}

	var localAPIKey string
	localCmd.Flags().StringVar(&localAPIKey, "api-key", "", "Gemini API key sent with each request (required)")
	localCmd.MarkFlagRequired("api-key")

	var logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Log out and wipe the local workspace",
		RunE:  runLogout,
	}

	var logoutConfirm bool
	logoutCmd.Flags().BoolVar(&logoutConfirm, "confirm", false, "Confirm wiping local results, cookies and folders")

	var analyzeCmd = &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Extract links from pasted text and submit them for analysis",
		Long:  "Extracts every http/https link from the given text (or --file), deduplicates them, and submits them one at a time to the analysis backend. Failed links are reported and skipped; the batch always runs to the end.",
		RunE:  runAnalyze,
	}

	var (
		analyzeFile   string
		analyzeFolder string
		analyzeLog    string
	)

	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Read pasted text from a file instead of arguments")
	analyzeCmd.Flags().StringVar(&analyzeFolder, "folder", "", "Folder id for the new results")
	analyzeCmd.Flags().StringVar(&analyzeLog, "log", "", "Path to log file")

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List analysis results",
		RunE:  runList,
	}

	var (
		listFolder string
		listJSON   bool
	)

	listCmd.Flags().StringVar(&listFolder, "folder", model.FolderAll, "Folder id to filter by")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output results as JSON")

	var showCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Show one result with its full analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	var showJSON bool
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output result as JSON")

	var selectCmd = &cobra.Command{
		Use:   "select [id...]",
		Short: "Toggle results in the selection set",
		RunE:  runSelect,
	}

	var selectClear bool
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "Empty the selection set")

	var rmCmd = &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete one result, or every selected result",
		RunE:  runRemove,
	}

	var (
		rmSelected bool
		rmConfirm  bool
	)

	rmCmd.Flags().BoolVar(&rmSelected, "selected", false, "Delete every result in the selection set")
	rmCmd.Flags().BoolVar(&rmConfirm, "confirm", false, "Confirm the deletion (required)")

	var foldersCmd = &cobra.Command{
		Use:   "folders",
		Short: "Manage folders",
		RunE:  runFolders,
	}

	var (
		foldersAction string
		foldersName   string
		foldersID     string
	)

	foldersCmd.Flags().StringVar(&foldersAction, "action", "list", "Action: list, add, rm")
	foldersCmd.Flags().StringVar(&foldersName, "name", "", "Folder name for add")
	foldersCmd.Flags().StringVar(&foldersID, "id", "", "Folder id for rm")

	var cookiesCmd = &cobra.Command{
		Use:   "cookies",
		Short: "Manage session cookie assets",
		RunE:  runCookies,
	}

	var (
		cookiesAction string
		cookiesValue  string
		cookiesNote   string
		cookiesID     string
	)

	cookiesCmd.Flags().StringVar(&cookiesAction, "action", "list", "Action: list, add, rm")
	cookiesCmd.Flags().StringVar(&cookiesValue, "value", "", "Raw cookie string for add")
	cookiesCmd.Flags().StringVar(&cookiesNote, "note", "", "Free-text note for add")
	cookiesCmd.Flags().StringVar(&cookiesID, "id", "", "Cookie id for rm")

	var rewriteCmd = &cobra.Command{
		Use:   "rewrite [id]",
		Short: "Generate a rewrite suggestion for an analyzed note",
		Args:  cobra.ExactArgs(1),
		RunE:  runRewrite,
	}

	var exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export a single result as Markdown",
		RunE:  runExport,
	}

	var (
		exportID     string
		exportOut    string
		exportStdout bool
	)

	exportCmd.Flags().StringVar(&exportID, "id", "", "Result id to export (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Output to stdout")
	exportCmd.MarkFlagRequired("id")

	var exportAllCmd = &cobra.Command{
		Use:   "export-all",
		Short: "Export all results to a directory",
		RunE:  runExportAll,
	}

	var (
		exportAllDir    string
		exportAllFolder string
	)

	exportAllCmd.Flags().StringVar(&exportAllDir, "dir", "", "Output directory (required)")
	exportAllCmd.Flags().StringVar(&exportAllFolder, "folder", "", "Folder id to filter by")
	exportAllCmd.MarkFlagRequired("dir")

	var statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show workspace statistics",
		RunE:  runStats,
	}

	var statsJSON bool
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")

	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Probe the backend /api/health endpoint",
		RunE:  runHealth,
	}

	var mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP (Model Context Protocol) server",
		Long:  "Start an MCP server that exposes the local workspace read-only for AI models and other MCP clients",
		RunE:  runMCP,
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("insight-cli " + version.GetFullVersion())
		},
	}

	rootCmd.AddCommand(loginCmd, registerCmd, localCmd, logoutCmd, analyzeCmd, listCmd,
		showCmd, selectCmd, rmCmd, foldersCmd, cookiesCmd, rewriteCmd, exportCmd,
		exportAllCmd, statsCmd, healthCmd, mcpCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}

	if store != nil {
		store.Close()
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	auth, err := api.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	workspace.SetHostedSession(auth.AccessToken, email)
	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	apiKey, _ := cmd.Flags().GetString("api-key")

	auth, err := api.Register(cmd.Context(), email, password, apiKey)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	workspace.SetHostedSession(auth.AccessToken, email)
	fmt.Printf("Registered and logged in as %s\n", email)
	return nil
}

func runLocal(cmd *cobra.Command, args []string) error {
	apiKey, _ := cmd.Flags().GetString("api-key")

	workspace.SetLocalSession(apiKey)
	fmt.Println("Switched to local mode. The API key and active cookie will be sent with each analyze request.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetBool("confirm")
	if !confirm {
		return fmt.Errorf("logout wipes local results, cookies and folders; re-run with --confirm")
	}

	workspace.Logout()
	fmt.Println("Logged out and cleared the local workspace.")
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		text = string(raw)
	}

	urls, err := extract.Links(text)
	if err != nil {
		return fmt.Errorf("nothing to submit: %w", err)
	}

	sess := workspace.Session()
	if !sess.LoggedIn() {
		return fmt.Errorf("not logged in; run 'insight-cli login' or 'insight-cli local'")
	}

	cookie, ok := workspace.ActiveCookie()
	if !ok {
		return fmt.Errorf("no active cookie; add one with 'insight-cli cookies --action add'")
	}

	var creds client.Credentials
	if sess.LocalMode {
		creds = client.Local{APIKey: sess.LocalAPIKey, CookieValue: cookie.Value}
	} else {
		creds = client.Hosted{Token: sess.Token}
	}

	folderID, _ := cmd.Flags().GetString("folder")
	if folderID == model.FolderAll {
		folderID = ""
	}
	if folderID != "" {
		if _, ok := workspace.FolderByID(folderID); !ok {
			return fmt.Errorf("folder %q not found", folderID)
		}
	}

	runner := submit.New(api)
	if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		runner.SetLogger(log.New(logFile, "", log.LstdFlags))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Submitting %d link(s)...\n", len(urls))

	outcome, err := runner.Run(ctx, urls, folderID, creds, workspace, func(i, n int, url string) {
		fmt.Printf("Processing (%d of %d): %s\n", i, n, util.Truncate(url, 80))
	})
	if err != nil && err != context.Canceled {
		return err
	}

	workspace.MarkCookieUsed(cookie.ID)

	for _, itemErr := range outcome.Errors {
		fmt.Printf("  failed: %v\n", itemErr)
	}
	fmt.Printf("Done: %d analyzed, %d failed\n", len(outcome.Added), len(outcome.Errors))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	folder, _ := cmd.Flags().GetString("folder")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	workspace.SetActiveFolder(folder)
	results := workspace.Filtered()

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	selected := make(map[string]bool)
	for _, id := range workspace.Selection() {
		selected[id] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tTITLE\tLIKES\tFOLDER\tANALYZED\tSEL")

	for _, r := range results {
		folderName := ""
		if r.Note.FolderID != "" {
			if f, ok := workspace.FolderByID(r.Note.FolderID); ok {
				folderName = f.Name
			}
		}

		analyzed := "No"
		if r.Analysis != nil {
			analyzed = "Yes"
		}

		sel := ""
		if selected[r.ID] {
			sel = "*"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, util.Truncate(r.Note.Title, 50), util.FormatCount(r.Note.Stats.Likes),
			folderName, analyzed, sel)
	}

	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	result, ok := workspace.Get(args[0])
	if !ok {
		return fmt.Errorf("result %q not found", args[0])
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	e := export.New(workspace)
	return e.ExportResult(result.ID, "", true)
}

func runSelect(cmd *cobra.Command, args []string) error {
	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		workspace.ClearSelection()
		fmt.Println("Selection cleared.")
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("provide result ids to toggle, or --clear")
	}

	// A repeated id would toggle itself straight back off.
	for _, id := range util.DedupeStrings(args) {
		selected, ok := workspace.ToggleSelect(id)
		if !ok {
			fmt.Printf("%s: no such result\n", id)
			continue
		}
		if selected {
			fmt.Printf("%s: selected\n", id)
		} else {
			fmt.Printf("%s: deselected\n", id)
		}
	}

	fmt.Printf("Selection: %d result(s)\n", len(workspace.Selection()))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	useSelected, _ := cmd.Flags().GetBool("selected")
	confirm, _ := cmd.Flags().GetBool("confirm")

	if useSelected {
		ids := workspace.Selection()
		if len(ids) == 0 {
			return fmt.Errorf("selection is empty; use 'insight-cli select' first")
		}
		if !confirm {
			return fmt.Errorf("about to delete %d selected result(s); re-run with --confirm", len(ids))
		}

		removed := workspace.BulkDelete()
		fmt.Printf("Deleted %d result(s).\n", removed)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide exactly one result id, or use --selected")
	}
	if !confirm {
		return fmt.Errorf("about to delete result %s; re-run with --confirm", args[0])
	}

	if !workspace.DeleteOne(args[0]) {
		return fmt.Errorf("result %q not found", args[0])
	}
	fmt.Printf("Deleted result %s.\n", args[0])
	return nil
}

func runFolders(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")

	switch action {
	case "list":
		return listFolders()
	case "add":
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required for add action")
		}
		folder := workspace.AddFolder(name, "")
		fmt.Printf("Created folder %s (id: %s)\n", folder.Name, folder.ID)
		return nil
	case "rm":
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required for rm action")
		}
		if err := workspace.DeleteFolder(id); err != nil {
			return err
		}
		fmt.Printf("Deleted folder %s. Its notes are now unfiled.\n", id)
		return nil
	default:
		return fmt.Errorf("invalid action: %s. Use list, add, or rm", action)
	}
}

func listFolders() error {
	folders := workspace.Folders()
	metrics := workspace.Metrics()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tNOTES")
	for _, f := range folders {
		count := metrics.PerFolder[f.ID]
		if f.ID == model.FolderAll {
			count = metrics.TotalNotes
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", f.ID, f.Name, count)
	}

	if unfiled := metrics.PerFolder[""]; unfiled > 0 {
		fmt.Fprintf(w, "%s\t%s\t%d\n", "-", "(unfiled)", unfiled)
	}
	return nil
}

func runCookies(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")

	switch action {
	case "list":
		return listCookies()
	case "add":
		value, _ := cmd.Flags().GetString("value")
		note, _ := cmd.Flags().GetString("note")
		if value == "" {
			return fmt.Errorf("--value is required for add action")
		}
		return addCookie(cmd.Context(), value, note)
	case "rm":
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required for rm action")
		}
		if !workspace.RemoveCookie(id) {
			return fmt.Errorf("cookie %q not found", id)
		}
		fmt.Printf("Removed cookie %s\n", id)
		return nil
	default:
		return fmt.Errorf("invalid action: %s. Use list, add, or rm", action)
	}
}

func listCookies() error {
	cookies := workspace.Cookies()
	if len(cookies) == 0 {
		fmt.Println("No cookies stored. Add one with --action add --value '...'")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tSTATUS\tNOTE\tLAST USED")
	for _, c := range cookies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Status, util.Truncate(c.Note, 40), c.LastUsed)
	}
	return nil
}

func addCookie(ctx context.Context, value, note string) error {
	cookie := workspace.AddCookie(value, note)

	// In hosted mode the cookie is also registered server-side; failures
	// there are logged only, the local copy is what submissions check.
	sess := workspace.Session()
	if sess.Token != "" {
		if err := api.AddCookie(ctx, sess.Token, value, note); err != nil {
			log.Printf("Warning: failed to register cookie with backend: %v", err)
		}
	}

	fmt.Printf("Added cookie %s (status: %s)\n", cookie.ID, cookie.Status)
	return nil
}

func runRewrite(cmd *cobra.Command, args []string) error {
	result, ok := workspace.Get(args[0])
	if !ok {
		return fmt.Errorf("result %q not found", args[0])
	}
	if result.Analysis == nil {
		return fmt.Errorf("result %q has no analysis yet", args[0])
	}

	fmt.Println("Generating rewrite suggestion...")

	gen := rewrite.New()
	suggestion, err := gen.Suggest(cmd.Context(), result.Note)
	if err != nil {
		return fmt.Errorf("rewrite generation failed: %w", err)
	}

	analysis := *result.Analysis
	analysis.RewriteSuggestion = suggestion
	workspace.UpdateAnalysis(result.Note.ID, &analysis)

	fmt.Println()
	fmt.Println(suggestion)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	outPath, _ := cmd.Flags().GetString("out")
	stdout, _ := cmd.Flags().GetBool("stdout")

	if !stdout && outPath == "" {
		return fmt.Errorf("either --out or --stdout must be specified")
	}

	e := export.New(workspace)
	return e.ExportResult(id, outPath, stdout)
}

func runExportAll(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	folder, _ := cmd.Flags().GetString("folder")

	e := export.New(workspace)
	return e.ExportAll(export.ExportAllOptions{
		Directory:    dir,
		FolderFilter: folder,
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	m := workspace.Metrics()

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(m)
	}

	fmt.Printf("Workspace Statistics\n")
	fmt.Printf("====================\n\n")
	fmt.Printf("  Total Notes:     %d\n", m.TotalNotes)
	fmt.Printf("  Analyzed:        %d\n", m.Analyzed)
	fmt.Printf("  Average Likes:   %.1f\n", m.AvgLikes)
	fmt.Printf("  Active Cookies:  %d\n", m.ActiveCookies)

	if len(m.TopTags) > 0 {
		fmt.Printf("\nTop Tags:\n")
		for _, tc := range m.TopTags {
			fmt.Printf("  %-20s %d\n", tc.Tag, tc.Count)
		}
	}

	if m.ActiveCookies == 0 {
		fmt.Printf("\nNote: no active cookie; analyze submissions will be refused.\n")
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	status, err := api.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	fmt.Printf("Backend status: %s\n", status.Status)
	if status.PythonVersion != "" {
		fmt.Printf("Python version: %s\n", status.PythonVersion)
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(os.Stderr, "Starting MCP server for insight-cli %s\n", version.GetVersion())
	fmt.Fprintf(os.Stderr, "Workspace: %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "MCP server listening on stdio...\n")

	server := mcp.NewServer(workspace)
	return server.Start()
}
