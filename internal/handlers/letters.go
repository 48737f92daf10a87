package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/gate"
	"github.com/diewo77/go-deliberations/httpx"
	"github.com/diewo77/go-deliberations/i18n"
	"github.com/diewo77/go-deliberations/internal/document"
	"github.com/diewo77/go-deliberations/internal/policy"
	"github.com/diewo77/go-deliberations/internal/render"
	"github.com/diewo77/go-deliberations/internal/services"
)

// maxPreviewBody bounds the document accepted by Preview.
const maxPreviewBody = 1 << 20

type LetterHandler struct {
	letters *services.LetterService
	gate    *gate.Gate[*auth.Actor]
	assets  render.Assets
	log     *slog.Logger
}

func NewLetterHandler(letters *services.LetterService, g *gate.Gate[*auth.Actor], assets render.Assets, log *slog.Logger) *LetterHandler {
	return &LetterHandler{letters: letters, gate: g, assets: assets, log: log}
}

// flexInt accepts a number or a numeric string. null and "" decode to 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	*n = flexInt(v)
	return nil
}

type letterRequest struct {
	CreatedBy          flexInt         `json:"created_by"`
	LetterNumber       document.Text   `json:"letter_number"`
	Year               flexInt         `json:"year"`
	SequenceNumber     document.Text   `json:"sequence_number"`
	Title              string          `json:"title"`
	DeliberationNumber document.Text   `json:"deliberation_number"`
	Content            json.RawMessage `json:"content"`
	Status             string          `json:"status"`
}

func (req letterRequest) input() services.LetterInput {
	var creator uint
	if req.CreatedBy > 0 {
		creator = uint(req.CreatedBy)
	}
	return services.LetterInput{
		CreatedBy:          creator,
		LetterNumber:       string(req.LetterNumber),
		Year:               int(req.Year),
		SequenceNumber:     string(req.SequenceNumber),
		Title:              req.Title,
		DeliberationNumber: string(req.DeliberationNumber),
		Content:            req.Content,
		Status:             req.Status,
	}
}

func (h *LetterHandler) authorize(w http.ResponseWriter, r *http.Request, action gate.Action) (auth.Actor, bool) {
	a, ok := actor(w, r)
	if !ok {
		return a, false
	}
	if err := h.gate.Authorize(r.Context(), &a, action, policy.ResourceLetter, nil); err != nil {
		writeError(w, r, h.log, err, nil)
		return a, false
	}
	return a, true
}

// List returns letters newest first. q filters, page and limit paginate.
func (h *LetterHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, gate.ActionList); !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 0 {
		limit = 0
	}
	letters, total, err := h.letters.List(r.Context(), services.ListParams{
		Query: q.Get("q"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"letters": letters, "total": total})
}

func (h *LetterHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, gate.ActionView); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, err := h.letters.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"letter": l})
}

func (h *LetterHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authorize(w, r, gate.ActionCreate)
	if !ok {
		return
	}
	var req letterRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "bad_format", err.Error())
		return
	}
	l, err := h.letters.Create(r.Context(), a, req.input())
	if err != nil {
		writeError(w, r, h.log, err, letterWriteCodes)
		return
	}
	httpx.Success(w, http.StatusCreated, map[string]any{
		"message":  i18n.T(i18n.LangFromContext(r.Context()), "letter_created"),
		"letterId": l.ID,
		"letter":   l,
	})
}

// Update replaces a letter's fields and content.
func (h *LetterHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authorize(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req letterRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "bad_format", err.Error())
		return
	}
	l, err := h.letters.Update(r.Context(), a, id, req.input())
	if err != nil {
		writeError(w, r, h.log, err, letterWriteCodes)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"message": i18n.T(i18n.LangFromContext(r.Context()), "letter_updated"),
		"letter":  l,
	})
}

// Lookup finds a letter by year and number: GET /api/deliberations?year=&numero=.
func (h *LetterHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, gate.ActionView); !ok {
		return
	}
	yearParam := strings.TrimSpace(r.URL.Query().Get("year"))
	numero := strings.TrimSpace(r.URL.Query().Get("numero"))
	if yearParam == "" || numero == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "lookup_params_required", nil)
		return
	}
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "bad_format", nil)
		return
	}
	l, err := h.letters.FindByNumber(r.Context(), year, numero)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"deliberation": l})
}

// PDF renders a stored letter.
func (h *LetterHandler) PDF(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, gate.ActionView); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, err := h.letters.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	doc, err := h.letters.Document(l)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	h.writePDF(w, r, doc, l.DeliberationNumber)
}

// Preview renders a submitted document without storing it. The body is the
// document itself, as an object or a JSON-encoded string.
func (h *LetterHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, gate.ActionView); !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPreviewBody))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	doc, err := document.Decode(body)
	if err != nil {
		writeError(w, r, h.log, err, nil)
		return
	}
	h.writePDF(w, r, doc, doc.Identifier())
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (h *LetterHandler) writePDF(w http.ResponseWriter, r *http.Request, doc *document.Document, name string) {
	data, err := render.Render(doc, h.assets)
	if err != nil {
		h.log.Error("pdf rendering failed", "error", err, "missing_asset", errors.Is(err, render.ErrMissingAsset))
		httpx.JSONError(w, r, http.StatusInternalServerError, "render_failed", nil)
		return
	}
	filename := "Deliberation_" + unsafeFilename.ReplaceAllString(name, "_") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
