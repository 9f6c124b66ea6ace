package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/radialmap/pkg/engine"
	apperrors "github.com/matzehuels/radialmap/pkg/errors"
	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/store"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

// maxBodyBytes caps request bodies; taxonomies are small documents.
const maxBodyBytes = 4 << 20

// =============================================================================
// Wire Types
// =============================================================================

type createSessionRequest struct {
	Taxonomy  *taxonomy.Node `json:"taxonomy"`
	Expanded  []string       `json:"expanded,omitempty"`
	ExpandAll bool           `json:"expand_all,omitempty"`
	Mode      string         `json:"mode,omitempty"`
}

type treeRequest struct {
	Taxonomy  *taxonomy.Node `json:"taxonomy"`
	Expanded  []string       `json:"expanded,omitempty"`
	ExpandAll bool           `json:"expand_all,omitempty"`
}

type expandedRequest struct {
	Expanded []string `json:"expanded"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type ticksRequest struct {
	Count int `json:"count,omitempty"`
}

type nodeRequest struct {
	Node string `json:"node"`
}

type dragMoveRequest struct {
	Node string  `json:"node"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type arrangeRequest struct {
	Parent   string   `json:"parent"`
	Children []string `json:"children,omitempty"`
}

type scopeRequest struct {
	Scope string `json:"scope"`
}

type stateResponse struct {
	SessionID string                `json:"session_id,omitempty"`
	Positions map[string]view.Point `json:"positions"`
	Settling  bool                  `json:"settling"`
	Focused   string                `json:"focused,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// Session Lifecycle
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Taxonomy == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidTaxonomy, "missing taxonomy"))
		return
	}
	if err := req.Taxonomy.Validate(); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidTaxonomy, err, "invalid taxonomy"))
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = s.cfg.Mode
	}
	eng, err := engine.New(s.cfg.Layout,
		engine.WithMode(engine.Mode(mode)),
		engine.WithSeed(s.cfg.Seed))
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidMode, err, "create engine"))
		return
	}
	if err := eng.Initialize(req.Taxonomy, expansionOf(req.Taxonomy, req.Expanded, req.ExpandAll)); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidTaxonomy, err, "initialize layout"))
		return
	}

	sess := s.sessions.create(eng)
	s.metrics.sessionsActive.Inc()
	s.logger.Info("session created", "session", sess.id, "mode", mode, "nodes", req.Taxonomy.Count())

	writeJSON(w, http.StatusCreated, stateOf(sess, sess.id))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if s.sessions.delete(sess.id) {
		s.metrics.sessionsActive.Dec()
		s.logger.Info("session deleted", "session", sess.id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionCtx resolves the session ID path parameter.
func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, ok := s.sessions.get(id)
		if !ok {
			writeError(w, apperrors.New(apperrors.ErrCodeSessionNotFound, "unknown session %q", id))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session {
	return ctx.Value(sessionKey{}).(*session)
}

// =============================================================================
// State
// =============================================================================

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateOf(sessionFrom(r.Context()), ""))
}

func (s *Server) handleUpdateTree(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req treeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Taxonomy == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidTaxonomy, "missing taxonomy"))
		return
	}
	if err := req.Taxonomy.Validate(); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidTaxonomy, err, "invalid taxonomy"))
		return
	}
	if err := sess.eng.Update(req.Taxonomy, expansionOf(req.Taxonomy, req.Expanded, req.ExpandAll)); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "update layout"))
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleSetExpanded(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req expandedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := sess.eng.SetExpanded(req.Expanded); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "set expanded"))
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req modeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := sess.eng.SetMode(engine.Mode(req.Mode)); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidMode, err, "set mode"))
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

// handleTicks advances the relaxation; the HTTP client is the frame timer.
func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req ticksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if !sess.eng.Tick() {
			break
		}
	}
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

// =============================================================================
// Drag Protocol
// =============================================================================

func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	s.nodeCommand(w, r, func(sess *session, node string) {
		sess.eng.BeginDrag(node)
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req dragMoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateNodeID(req.Node); err != nil {
		writeError(w, err)
		return
	}
	sess.eng.DragTo(req.Node, req.X, req.Y)
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.nodeCommand(w, r, func(sess *session, node string) {
		sess.eng.EndDrag(node)
	})
}

func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	s.nodeCommand(w, r, func(sess *session, node string) {
		sess.eng.CancelDrag(node)
	})
}

// nodeCommand factors the decode-validate-dispatch shape of the single-node
// commands.
func (s *Server) nodeCommand(w http.ResponseWriter, r *http.Request, run func(*session, string)) {
	sess := sessionFrom(r.Context())
	var req nodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateNodeID(req.Node); err != nil {
		writeError(w, err)
		return
	}
	run(sess, req.Node)
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

// =============================================================================
// Commands
// =============================================================================

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req arrangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateNodeID(req.Parent); err != nil {
		writeError(w, err)
		return
	}
	sess.eng.ArrangeChildrenCircular(req.Parent, req.Children)
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req nodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateNodeID(req.Node); err != nil {
		writeError(w, err)
		return
	}
	sess.eng.EnterFocus(req.Node)
	if sess.eng.Focused() != req.Node {
		writeError(w, apperrors.New(apperrors.ErrCodeNodeNotFound, "node %q is not visible or not focusable", req.Node))
		return
	}
	resp := struct {
		stateResponse
		Viewport any `json:"viewport,omitempty"`
	}{stateResponse: stateOf(sess, "")}
	if vp, ok := sess.eng.FocusViewport(); ok {
		resp.Viewport = vp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnfocus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.eng.ExitFocus()
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleWobble(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.eng.Wobble()
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

// =============================================================================
// Overrides
// =============================================================================

func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, sess.eng.Overrides())
}

func (s *Server) handleSaveOverrides(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req scopeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateScope(req.Scope); err != nil {
		writeError(w, err)
		return
	}
	overrides := sess.eng.Overrides()
	if err := s.store.Save(r.Context(), req.Scope, overrides); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStore, err, "save overrides"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(overrides)})
}

func (s *Server) handleLoadOverrides(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req scopeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := apperrors.ValidateScope(req.Scope); err != nil {
		writeError(w, err)
		return
	}
	overrides, err := s.store.Load(r.Context(), req.Scope)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "no overrides for scope %q", req.Scope))
			return
		}
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStore, err, "load overrides"))
		return
	}
	sess.eng.RestoreOverrides(overrides)
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleResetOverride(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	node := chi.URLParam(r, "nodeID")
	if err := apperrors.ValidateNodeID(node); err != nil {
		writeError(w, err)
		return
	}
	sess.eng.ResetOverride(node)
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

func (s *Server) handleResetAllOverrides(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.eng.ResetAllOverrides()
	writeJSON(w, http.StatusOK, stateOf(sess, ""))
}

// =============================================================================
// Export & Archive
// =============================================================================

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	snapshot := export.FromGraph(sess.eng.Graph(), string(sess.eng.Mode()))
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		_ = export.WriteJSON(snapshot, w)
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(export.RenderSVG(snapshot, export.WithLabels()))
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(export.ToDOT(snapshot)))
	case "png":
		data, err := export.RenderGraphviz(r.Context(), export.ToDOT(snapshot), "png")
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "render png"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	default:
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown format %q", format))
	}
}

// handleArchive inserts the current snapshot into the MongoDB archive.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if s.archive == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "no snapshot archive configured"))
		return
	}
	snapshot := export.FromGraph(sess.eng.Graph(), string(sess.eng.Mode()))
	doc := bson.M{
		"session":     sess.id,
		"archived_at": time.Now().UTC(),
		"snapshot":    snapshot,
	}
	res, err := s.archive.InsertOne(r.Context(), doc)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStore, err, "archive snapshot"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": res.InsertedID})
}

// =============================================================================
// Helpers
// =============================================================================

// expansionOf resolves the expansion set of a create or update request.
func expansionOf(tree *taxonomy.Node, expanded []string, all bool) []string {
	if all {
		return tree.IDs()
	}
	return expanded
}

// stateOf assembles the common positions response.
func stateOf(sess *session, sessionID string) stateResponse {
	return stateResponse{
		SessionID: sessionID,
		Positions: sess.eng.Positions(),
		Settling:  sess.eng.Settling(),
		Focused:   sess.eng.Focused(),
	}
}

// decodeBody parses a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidTaxonomy,
		apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidMode,
		apperrors.ErrCodeInvalidConfig, apperrors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNodeNotFound,
		apperrors.ErrCodeFileNotFound, apperrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	case apperrors.ErrCodeStore, apperrors.ErrCodeStoreStale, apperrors.ErrCodeStoreDenied:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{
		Error: apperrors.UserMessage(err),
		Code:  string(apperrors.GetCode(err)),
	})
}
