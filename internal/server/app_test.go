package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/db/dbtest"
	"github.com/diewo77/go-deliberations/internal/logging"
	"github.com/diewo77/go-deliberations/internal/models"
	"github.com/diewo77/go-deliberations/internal/render"
)

type env struct {
	t   *testing.T
	db  *gorm.DB
	app *App
}

func testAssets(t *testing.T) render.Assets {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	seal, err := render.NewImage("seal", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	commune, err := render.NewImage("commune", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return render.Assets{Seal: seal, Commune: commune}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	d := dbtest.Open(t)
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	app := NewApp(Deps{
		DB:         d,
		Log:        logging.Discard(),
		Issuer:     iss,
		Assets:     testAssets(t),
		BcryptCost: bcrypt.MinCost,
		CORSOrigin: "http://localhost:5173",
	})
	return &env{t: t, db: d, app: app}
}

func (e *env) user(username, password string, admin bool) models.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		e.t.Fatal(err)
	}
	u := models.User{Username: username, Password: hash, IsAdmin: admin}
	if err := e.db.Create(&u).Error; err != nil {
		e.t.Fatal(err)
	}
	return u
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.app.ServeHTTP(w, req)
	return w
}

func (e *env) login(username, password string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/login", "", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		e.t.Fatalf("login %s: %d %s", username, w.Code, w.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(e.t, w, &out)
	return out.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decode(t, w, &out)
	if out.Success {
		t.Fatalf("expected failure body, got %s", w.Body)
	}
	return out.Error
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	if w := e.do(http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)
	e.user("admin", "pw", true)

	w := e.do(http.MethodPost, "/login", "", map[string]string{"username": "ghost", "password": "pw"})
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "user_not_found" {
		t.Fatalf("unknown user: %d %s", w.Code, w.Body)
	}
	w = e.do(http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "bad"})
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "wrong_password" {
		t.Fatalf("wrong password: %d %s", w.Code, w.Body)
	}
	if strings.Contains(e.do(http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "pw"}).Body.String(), "password") {
		t.Fatal("login response leaks the password hash")
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/letters", "", nil)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "token_missing" {
		t.Fatalf("no token: %d %s", w.Code, w.Body)
	}
	w = e.do(http.MethodGet, "/letters", "garbage", nil)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "token_invalid" {
		t.Fatalf("bad token: %d %s", w.Code, w.Body)
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	e := newEnv(t)
	e.user("admin", "pw", true)
	u := e.user("agent", "pw", false)
	tok := e.login("agent", "pw")
	e.db.Delete(&models.User{}, u.ID)

	if w := e.do(http.MethodGet, "/users/me", tok, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
}

func TestUserFlow(t *testing.T) {
	e := newEnv(t)
	e.user("admin", "pw", true)
	adminTok := e.login("admin", "pw")

	w := e.do(http.MethodPost, "/users", adminTok, map[string]any{
		"username": "agent", "password": "pw", "nom": "Rabe", "email": "agent@example.mg", "phoneNumber": "0340000000", "isAdmin": 0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	var created struct {
		UserID uint `json:"userId"`
	}
	decode(t, w, &created)

	w = e.do(http.MethodPost, "/users", adminTok, map[string]any{"username": "agent", "password": "pw"})
	if w.Code != http.StatusConflict || errorCode(t, w) != "username_exists" {
		t.Fatalf("duplicate: %d %s", w.Code, w.Body)
	}
	w = e.do(http.MethodPost, "/users", adminTok, map[string]any{"username": "nopass"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "credentials_required" {
		t.Fatalf("missing password: %d %s", w.Code, w.Body)
	}

	agentTok := e.login("agent", "pw")
	w = e.do(http.MethodPost, "/users", agentTok, map[string]any{"username": "x", "password": "y"})
	if w.Code != http.StatusForbidden || errorCode(t, w) != "admin_required" {
		t.Fatalf("standard create: %d %s", w.Code, w.Body)
	}

	var list struct {
		Users []models.User `json:"users"`
	}
	decode(t, e.do(http.MethodGet, "/users", agentTok, nil), &list)
	if len(list.Users) != 1 || list.Users[0].ID != created.UserID {
		t.Fatalf("standard list = %+v", list.Users)
	}
	decode(t, e.do(http.MethodGet, "/users", adminTok, nil), &list)
	if len(list.Users) != 2 {
		t.Fatalf("admin list = %+v", list.Users)
	}

	// Self username change returns a fresh credential, the role stays.
	w = e.do(http.MethodPut, "/users/"+itoa(created.UserID), agentTok, map[string]any{"username": "agent2", "isAdmin": true})
	if w.Code != http.StatusOK {
		t.Fatalf("self update: %d %s", w.Code, w.Body)
	}
	var upd struct {
		NewToken string      `json:"newToken"`
		User     models.User `json:"user"`
	}
	decode(t, w, &upd)
	if upd.NewToken == "" || upd.User.IsAdmin || upd.User.Username != "agent2" {
		t.Fatalf("self update body = %s", w.Body)
	}
	iss, _ := auth.NewIssuer("test-secret", time.Hour)
	a, err := iss.Verify(upd.NewToken)
	if err != nil || a.Username != "agent2" || a.IsAdmin {
		t.Fatalf("new token actor = %+v, %v", a, err)
	}

	var adminID uint
	e.db.Model(&models.User{}).Where("username = ?", "admin").Pluck("id", &adminID)
	w = e.do(http.MethodPut, "/users/"+itoa(adminID), upd.NewToken, map[string]any{"nom": "x"})
	if w.Code != http.StatusForbidden || errorCode(t, w) != "forbidden_profile" {
		t.Fatalf("foreign update: %d %s", w.Code, w.Body)
	}

	w = e.do(http.MethodDelete, "/users/"+itoa(adminID), adminTok, nil)
	if w.Code != http.StatusForbidden || errorCode(t, w) != "last_admin" {
		t.Fatalf("last admin: %d %s", w.Code, w.Body)
	}
	w = e.do(http.MethodDelete, "/users/999", adminTok, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %d", w.Code)
	}
	w = e.do(http.MethodDelete, "/users/"+itoa(created.UserID), adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body)
	}
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

const letterContent = `{"numero":"7","sessionDate":"2025-06-20","date":"2025-06-20","titreDeliberation":"Marché communal","voixPour":"12","voixContre":"0","voixAbstention":"1","articles":["Premier article.","Second article."]}`

func TestLetterFlow(t *testing.T) {
	e := newEnv(t)
	admin := e.user("admin", "pw", true)
	e.user("agent", "pw", false)
	adminTok := e.login("admin", "pw")
	agentTok := e.login("agent", "pw")

	w := e.do(http.MethodPost, "/letters", adminTok, map[string]any{"letter_number": "7"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "missing_fields" {
		t.Fatalf("missing: %d %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "created_by, year, title, deliberation_number") {
		t.Fatalf("missing field list not in message: %s", w.Body)
	}

	body := map[string]any{
		"created_by":          admin.ID,
		"letter_number":       "7",
		"year":                "2025",
		"title":               "Marché communal",
		"deliberation_number": "7-25",
		"content":             letterContent,
	}
	if w := e.do(http.MethodPost, "/letters", agentTok, body); w.Code != http.StatusForbidden {
		t.Fatalf("standard create: %d", w.Code)
	}
	w = e.do(http.MethodPost, "/letters", adminTok, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	var created struct {
		LetterID uint `json:"letterId"`
	}
	decode(t, w, &created)

	body["created_by"] = 999
	w = e.do(http.MethodPost, "/letters", adminTok, body)
	if w.Code != http.StatusInternalServerError || errorCode(t, w) != "fk_user_missing" {
		t.Fatalf("unknown creator: %d %s", w.Code, w.Body)
	}

	w = e.do(http.MethodGet, "/api/deliberations?year=2025&numero=7", agentTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup: %d %s", w.Code, w.Body)
	}
	var found struct {
		Deliberation struct {
			ID       uint            `json:"id"`
			Content  json.RawMessage `json:"content"`
			Username string          `json:"created_by_username"`
		} `json:"deliberation"`
	}
	decode(t, w, &found)
	if found.Deliberation.ID != created.LetterID || found.Deliberation.Username != "admin" {
		t.Fatalf("lookup body = %s", w.Body)
	}
	var gotContent, wantContent map[string]any
	_ = json.Unmarshal(found.Deliberation.Content, &gotContent)
	_ = json.Unmarshal([]byte(letterContent), &wantContent)
	if gotContent["titreDeliberation"] != wantContent["titreDeliberation"] || len(gotContent) != len(wantContent) {
		t.Fatalf("content round trip = %s", found.Deliberation.Content)
	}

	if w := e.do(http.MethodGet, "/api/deliberations?year=2025", agentTok, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("lookup without numero: %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/api/deliberations?year=2024&numero=7", agentTok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("lookup miss: %d", w.Code)
	}

	var list struct {
		Letters []models.Letter `json:"letters"`
		Total   int64           `json:"total"`
	}
	decode(t, e.do(http.MethodGet, "/letters?q=march", agentTok, nil), &list)
	if list.Total != 1 || list.Letters[0].CreatorUsername != "admin" {
		t.Fatalf("list = %+v", list)
	}

	upd := map[string]any{
		"letter_number": "7", "year": 2025, "title": "Marché communal modifié",
		"deliberation_number": "7-25", "content": json.RawMessage(letterContent), "status": "adoptee",
	}
	if w := e.do(http.MethodPut, "/letters/"+itoa(created.LetterID), adminTok, upd); w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body)
	}
	if w := e.do(http.MethodPut, "/letters/999", adminTok, upd); w.Code != http.StatusNotFound {
		t.Fatalf("update missing: %d", w.Code)
	}
	upd["status"] = "archivee"
	w = e.do(http.MethodPut, "/letters/"+itoa(created.LetterID), adminTok, upd)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_status" {
		t.Fatalf("bad status: %d %s", w.Code, w.Body)
	}

	w = e.do(http.MethodGet, "/letters/"+itoa(created.LetterID)+"/pdf", agentTok, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: %d %s", w.Code, w.Header())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Deliberation_7-25.pdf") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestPreview(t *testing.T) {
	e := newEnv(t)
	e.user("agent", "pw", false)
	tok := e.login("agent", "pw")

	w := e.do(http.MethodPost, "/letters/preview", tok, letterContent)
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("preview: %d", w.Code)
	}
	w = e.do(http.MethodPost, "/letters/preview", tok, `{"voixPour":"douze"}`)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_content" {
		t.Fatalf("invalid preview: %d %s", w.Code, w.Body)
	}
}

func TestErrorMessagesFollowLanguage(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/letters", nil)
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	e.app.ServeHTTP(w, req)
	var out struct {
		Message string `json:"message"`
	}
	decode(t, w, &out)
	if out.Message != "Missing token" {
		t.Fatalf("message = %q", out.Message)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}
