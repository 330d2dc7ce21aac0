package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/notesync/internal/async"
	nserrors "github.com/Aman-CERP/notesync/internal/errors"
	"github.com/Aman-CERP/notesync/internal/index"
	"github.com/Aman-CERP/notesync/internal/store"
	"github.com/Aman-CERP/notesync/pkg/version"
)

// Reconciler is the write side of the store.
type Reconciler interface {
	Resync(ctx context.Context, root string) *index.Run
	UpdateFile(ctx context.Context, path, content string) error
	RemovePath(ctx context.Context, path string) error
}

// Searcher is the read side of the store.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]store.QueryResult, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// NoteReader reads notes and decides which relative paths are notes.
type NoteReader interface {
	ReadFile(path string) (string, error)
	Accepts(relPath string) bool
}

// Server is the MCP server for a notes directory.
type Server struct {
	mcp        *mcp.Server
	reconciler Reconciler
	searcher   Searcher
	notes      NoteReader
	rootPath   string
	embedder   string
	tracker    *async.Tracker
	logger     *slog.Logger

	// writeMu serializes tool calls that modify the store.
	writeMu sync.Mutex

	mu         sync.RWMutex
	lastResync *ResyncOutput
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        "resync",
		Description: "Bring the note store in line with the notes directory. Re-chunks only notes whose chunk count changed and reports what was refreshed.",
	},
	{
		Name:        "update_note",
		Description: "Re-read one note from disk and replace its stored chunks. Use after editing a note.",
	},
	{
		Name:        "remove_note",
		Description: "Delete every stored chunk of one note.",
	},
	{
		Name:        "search_notes",
		Description: "Find note passages by meaning. Returns the closest chunks with their note path and position.",
	},
	{
		Name:        "index_status",
		Description: "Report how many notes and records the store holds and the result of the last resync.",
	},
}

// NewServer creates a new MCP server rooted at rootPath.
func NewServer(reconciler Reconciler, searcher Searcher, notes NoteReader, rootPath string) (*Server, error) {
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if notes == nil {
		return nil, errors.New("note reader is required")
	}

	s := &Server{
		reconciler: reconciler,
		searcher:   searcher,
		notes:      notes,
		rootPath:   rootPath,
		tracker:    async.NewTracker(),
		logger:     slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "notesync",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// SetEmbedder records the embedder name reported by index_status.
func (s *Server) SetEmbedder(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedder = name
}

// ResyncInBackground starts a resync of the root and returns at once.
// index_status reports its progress. The returned channel is closed when
// the pass has finished.
func (s *Server) ResyncInBackground(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		run := s.reconciler.Resync(ctx, s.rootPath)
		<-s.tracker.Follow(run)
		res, err := run.Wait()
		if err != nil {
			s.logger.Warn("background resync failed", slog.String("error", err.Error()))
			return
		}
		s.recordResync(res)
	}()
	return done
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "notesync", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// CallTool invokes a tool by name with JSON-decoded arguments and returns
// markdown for the client.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "resync":
		dir, _ := args["dir"].(string)
		out, err := s.resync(ctx, dir)
		if err != nil {
			return "", MapError(err)
		}
		return FormatResyncResult(out), nil

	case "update_note", "remove_note":
		path, ok := args["path"].(string)
		if !ok || strings.TrimSpace(path) == "" {
			return "", NewInvalidParamsError("path parameter is required and must be a non-empty string")
		}
		update := s.updateNote
		if name == "remove_note" {
			update = s.removeNote
		}
		out, err := update(ctx, path)
		if err != nil {
			return "", MapError(err)
		}
		return FormatNoteResult(out), nil

	case "search_notes":
		query, ok := args["query"].(string)
		if !ok || strings.TrimSpace(query) == "" {
			return "", NewInvalidParamsError("query parameter is required and must be a non-empty string")
		}
		limit := 0
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		results, err := s.search(ctx, query, limit)
		if err != nil {
			return "", MapError(err)
		}
		out := FormatSearchResults(query, results, s.rootPath)
		if s.tracker.IsResyncing() {
			snap := s.tracker.Snapshot()
			out = fmt.Sprintf("_Resync in progress (%s, %.0f%%): results may be incomplete._\n\n", snap.Stage, snap.ProgressPct) + out
		}
		return out, nil

	case "index_status":
		out, err := s.indexStatus(ctx)
		if err != nil {
			return "", MapError(err)
		}
		return FormatIndexStatus(out), nil

	default:
		return "", NewMethodNotFoundError(name)
	}
}

// resync runs a full pass over dir, or the root when dir is empty, and
// waits for it. Progress events are not forwarded.
func (s *Server) resync(ctx context.Context, dir string) (*ResyncOutput, error) {
	requestID := generateRequestID()
	root := s.rootPath
	if dir != "" {
		var err error
		if root, err = s.resolve(dir); err != nil {
			return nil, err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.logger.Info("resync started",
		slog.String("request_id", requestID),
		slog.String("root", root))

	res, err := s.reconciler.Resync(ctx, root).Wait()
	if err != nil {
		s.logger.Error("resync failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, err
	}

	out := s.recordResync(res)

	s.logger.Info("resync completed",
		slog.String("request_id", requestID),
		slog.Int("refreshed", out.Refreshed),
		slog.Int64("duration_ms", out.DurationMS))
	return out, nil
}

func (s *Server) recordResync(res index.Result) *ResyncOutput {
	out := &ResyncOutput{
		Files:      res.Files,
		Stored:     res.StoredRecords,
		Refreshed:  res.Refreshed,
		Inserted:   res.Inserted,
		DurationMS: res.Duration.Milliseconds(),
	}
	s.mu.Lock()
	s.lastResync = out
	s.mu.Unlock()
	return out
}

func (s *Server) updateNote(ctx context.Context, path string) (*NoteOutput, error) {
	abs, err := s.resolveNote(path)
	if err != nil {
		return nil, err
	}

	content, err := s.notes.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nserrors.New(nserrors.ErrCodeFileNotFound, "note not found: "+path, err).
				WithSuggestion("Use remove_note to drop its records.")
		}
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.reconciler.UpdateFile(ctx, abs, content); err != nil {
		return nil, err
	}
	s.logger.Info("note updated", slog.String("path", abs))
	return &NoteOutput{Path: abs, Action: "updated"}, nil
}

func (s *Server) removeNote(ctx context.Context, path string) (*NoteOutput, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.reconciler.RemovePath(ctx, abs); err != nil {
		return nil, err
	}
	s.logger.Info("note removed", slog.String("path", abs))
	return &NoteOutput{Path: abs, Action: "removed"}, nil
}

func (s *Server) search(ctx context.Context, query string, limit int) ([]store.QueryResult, error) {
	start := time.Now()
	requestID := generateRequestID()
	limit = clampLimit(limit, 10, 1, 50)

	s.logger.Info("search started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit))

	results, err := s.searcher.Search(ctx, query, limit)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(results)))
	return results, nil
}

func (s *Server) indexStatus(ctx context.Context) (*IndexStatusOutput, error) {
	stats, err := s.searcher.Stats(ctx)
	if err != nil {
		return nil, err
	}

	out := &IndexStatusOutput{
		RootPath: s.rootPath,
		Records:  stats.Rows,
		Notes:    stats.Notes,
	}
	if snap := s.tracker.Snapshot(); snap.Status != async.StatusIdle {
		out.Background = &snap
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out.Embedder = s.embedder
	out.LastResync = s.lastResync
	return out, nil
}

// resolve makes path absolute against the root and rejects paths outside it.
func (s *Server) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.rootPath, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(s.rootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewInvalidParamsError(fmt.Sprintf("path %q is outside %s", path, s.rootPath))
	}
	return path, nil
}

// resolveNote is resolve plus a check that the path names a note file.
func (s *Server) resolveNote(path string) (string, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	rel, _ := filepath.Rel(s.rootPath, abs)
	if !s.notes.Accepts(filepath.ToSlash(rel)) {
		return "", NewInvalidParamsError(fmt.Sprintf("%q is not a note", path))
	}
	return abs, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[0].Name, Description: toolInfos[0].Description}, s.mcpResyncHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[1].Name, Description: toolInfos[1].Description}, s.mcpUpdateNoteHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[2].Name, Description: toolInfos[2].Description}, s.mcpRemoveNoteHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[3].Name, Description: toolInfos[3].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[4].Name, Description: toolInfos[4].Description}, s.mcpIndexStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(toolInfos)))
}

func (s *Server) mcpResyncHandler(ctx context.Context, _ *mcp.CallToolRequest, input ResyncInput) (
	*mcp.CallToolResult,
	*ResyncOutput,
	error,
) {
	out, err := s.resync(ctx, input.Dir)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpUpdateNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input NoteInput) (
	*mcp.CallToolResult,
	*NoteOutput,
	error,
) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, nil, NewInvalidParamsError("path parameter is required")
	}
	out, err := s.updateNote(ctx, input.Path)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpRemoveNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input NoteInput) (
	*mcp.CallToolResult,
	*NoteOutput,
	error,
) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, nil, NewInvalidParamsError("path parameter is required")
	}
	out, err := s.removeNote(ctx, input.Path)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	results, err := s.search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, ToSearchResultOutput(r, s.rootPath))
	}
	return nil, output, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	out, err := s.indexStatus(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// clampLimit returns def for non-positive limits and bounds the rest to
// [lo, hi].
func clampLimit(limit, def, lo, hi int) int {
	if limit <= 0 {
		return def
	}
	return min(max(limit, lo), hi)
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
