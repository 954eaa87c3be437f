package responses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

// FlashStore keeps banner messages between a redirect and the next page.
type FlashStore interface {
	PushFlash(ctx context.Context, sessionID string, flash session.Flash) error
	PopFlashes(ctx context.Context, sessionID string) ([]session.Flash, error)
}

// Page is the layout model. User and Flashes are filled by the renderer.
type Page struct {
	Title   string
	Active  string
	User    *session.User
	Flashes []session.Flash
	Content any
}

// ErrorContent is the model of the error page.
type ErrorContent struct {
	Heading string
	Message string
}

// Renderer executes the page templates inside the shared layout.
type Renderer struct {
	pages   map[string]*template.Template
	flashes FlashStore
	logg    *logger.Logger
}

var templateFuncs = template.FuncMap{
	"bannerClass": func(kind enums.BannerKind) string {
		return "banner-" + string(kind)
	},
	"categoryFilters": enums.CategoryFilters,
	"inc":             func(n int) int { return n + 1 },
	"dec":             func(n int) int { return n - 1 },
}

// NewRenderer parses layout plus every other *.html file of fsys. Pages are
// addressed by file name without extension.
func NewRenderer(fsys fs.FS, layout string, flashes FlashStore, logg *logger.Logger) (*Renderer, error) {
	if fsys == nil {
		return nil, fmt.Errorf("template filesystem required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	base, err := template.New(layout).Funcs(templateFuncs).ParseFS(fsys, layout)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layout {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout: %w", err)
		}
		page, err := clone.ParseFS(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = page
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return &Renderer{pages: pages, flashes: flashes, logg: logg}, nil
}

// Has reports whether a page template exists.
func (rd *Renderer) Has(name string) bool {
	_, ok := rd.pages[name]
	return ok
}

// Render writes the named page. Pending banners of the session are consumed.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	ctx := r.Context()
	tmpl, ok := rd.pages[name]
	if !ok {
		rd.logg.Error(rd.logg.WithField(ctx, "template", name), "template.missing", fmt.Errorf("unknown page %q", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if cred, ok := session.CredentialFromContext(ctx); ok {
		user := cred.User
		page.User = &user
	}
	page.Flashes = append(rd.popFlashes(ctx), page.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		rd.logg.Error(rd.logg.WithField(ctx, "template", name), "template.execute", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderError writes the error page.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	rd.Render(w, r, status, "error", Page{
		Title:   heading,
		Content: ErrorContent{Heading: heading, Message: message},
	})
}

// Redirect queues the banners for the session and answers 303 See Other so
// a refresh never repeats the action.
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, to string, flashes ...session.Flash) {
	ctx := r.Context()
	sid := session.SessionIDFromContext(ctx)
	if rd.flashes != nil {
		for _, flash := range flashes {
			if err := rd.flashes.PushFlash(ctx, sid, flash); err != nil {
				rd.logg.Warn(rd.logg.WithError(ctx, err), "flash.push_failed")
			}
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (rd *Renderer) popFlashes(ctx context.Context) []session.Flash {
	if rd.flashes == nil {
		return nil
	}
	flashes, err := rd.flashes.PopFlashes(ctx, session.SessionIDFromContext(ctx))
	if err != nil {
		rd.logg.Warn(rd.logg.WithError(ctx, err), "flash.pop_failed")
		return nil
	}
	return flashes
}

func FlashSuccess(message string) session.Flash {
	return session.Flash{Kind: enums.BannerSuccess, Message: message}
}

func FlashError(message string) session.Flash {
	return session.Flash{Kind: enums.BannerError, Message: message}
}

func FlashInfo(message string) session.Flash {
	return session.Flash{Kind: enums.BannerInfo, Message: message}
}
