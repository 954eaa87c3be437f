package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/residence-portal/api/views"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	pkgredis "github.com/angelmondragon/residence-portal/pkg/redis"
	"github.com/angelmondragon/residence-portal/pkg/session"
	"github.com/angelmondragon/residence-portal/pkg/types"
)

func embeddedRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewInMemory()
	if err != nil {
		t.Fatalf("embedded redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "quantity"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("internal message leaked: %q", body.Error.Message)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestPublicMessageKeepsBackendText(t *testing.T) {
	remote := pkgerrors.Remote(pkgerrors.CodeDependency, "Checkout is temporarily unavailable")
	if got := PublicMessage(remote); got != "Checkout is temporarily unavailable" {
		t.Fatalf("expected backend message, got %q", got)
	}
	local := pkgerrors.New(pkgerrors.CodeDependency, "dial tcp: connection refused")
	if got := PublicMessage(local); got != "dependency unavailable" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func newTestRenderer(t *testing.T) (*Renderer, *session.Store) {
	t.Helper()
	store, err := session.NewStore(embeddedRedis(t), session.Options{TTL: time.Hour})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	rd, err := NewRenderer(views.FS(), views.LayoutFile, store, nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return rd, store
}

func TestRendererParsesEmbeddedPages(t *testing.T) {
	rd, _ := newTestRenderer(t)
	for _, page := range []string{"login", "catalog", "cart", "cart_remove", "cart_checkout", "consumption", "error"} {
		if !rd.Has(page) {
			t.Fatalf("expected page %q to be parsed", page)
		}
	}
	if rd.Has("layout") {
		t.Fatalf("layout must not be addressable as a page")
	}
}

func TestRenderConsumesFlashesOnce(t *testing.T) {
	rd, store := newTestRenderer(t)
	ctx := session.WithSessionID(context.Background(), "sid-1")
	if err := store.PushFlash(ctx, "sid-1", FlashError("Failed to place order")); err != nil {
		t.Fatalf("push flash: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/oops", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	rd.RenderError(rec, req, http.StatusNotFound, "Page not found", "Nothing lives here.")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Failed to place order") || !strings.Contains(body, "banner-error") {
		t.Fatalf("expected flash in body, got %s", body)
	}
	if !strings.Contains(body, "Nothing lives here.") {
		t.Fatalf("expected error message in body")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	again := httptest.NewRecorder()
	rd.RenderError(again, req, http.StatusNotFound, "Page not found", "Nothing lives here.")
	if strings.Contains(again.Body.String(), "Failed to place order") {
		t.Fatalf("flash should only render once")
	}
}

func TestRenderShowsSignedInUser(t *testing.T) {
	rd, _ := newTestRenderer(t)
	ctx := session.WithCredential(context.Background(), &session.Credential{
		SessionID: "sid",
		Token:     "token",
		User:      session.User{Name: "Asha", RoomNumber: "B-204"},
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	rd.RenderError(rec, req, http.StatusOK, "Hello", "Welcome")

	body := rec.Body.String()
	if !strings.Contains(body, "Asha") || !strings.Contains(body, "Room B-204") {
		t.Fatalf("expected user in header, got %s", body)
	}
	if !strings.Contains(body, `action="/logout"`) {
		t.Fatalf("expected sign-out form for signed-in user")
	}
}

func TestRedirectQueuesFlashes(t *testing.T) {
	rd, store := newTestRenderer(t)
	ctx := session.WithSessionID(context.Background(), "sid-2")
	req := httptest.NewRequest(http.MethodPost, "/rooftop/cart/checkout", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	rd.Redirect(rec, req, "/rooftop/cart", FlashSuccess("Checkout successful. 2 items billed to your utility bill."))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/rooftop/cart" {
		t.Fatalf("unexpected location %q", loc)
	}
	flashes, err := store.PopFlashes(ctx, "sid-2")
	if err != nil {
		t.Fatalf("pop flashes: %v", err)
	}
	if len(flashes) != 1 || flashes[0].Kind != enums.BannerSuccess {
		t.Fatalf("unexpected flashes %+v", flashes)
	}
}

func TestNewRendererRejectsBrokenTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`{{define "layout"}}{{template "content" .Content}}{{end}}`)},
		"bad.html":    {Data: []byte(`{{define "content"}}{{.Missing{{end}}`)},
	}
	if _, err := NewRenderer(fsys, "layout.html", nil, nil); err == nil {
		t.Fatal("expected parse error")
	}

	empty := fstest.MapFS{
		"layout.html": {Data: []byte(`{{define "layout"}}{{end}}`)},
	}
	if _, err := NewRenderer(empty, "layout.html", nil, nil); err == nil {
		t.Fatal("expected error when no pages exist")
	}
}
