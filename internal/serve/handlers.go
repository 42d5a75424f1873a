package serve

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"inflections/internal/domain/magazine"
	"inflections/internal/domain/site"
	"inflections/internal/newsletter"
	"inflections/internal/render"
)

const (
	maxNewsletterBody = 4 << 10
	writeBackRetry    = 15 * time.Minute
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page := s.pages.Home(r.Context())
	s.writePage(w, r, "home", func(ctx context.Context) ([]byte, error) {
		return s.tpl.RenderHome(ctx, page)
	})
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	page := s.pages.Issues(r.Context())
	s.writePage(w, r, "issues", func(ctx context.Context) ([]byte, error) {
		return s.tpl.RenderIssues(ctx, page)
	})
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages.Issue(r.Context(), r.PathValue("number"))
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writePage(w, r, "issue", func(ctx context.Context) ([]byte, error) {
		return s.tpl.RenderIssue(ctx, page)
	})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	page := s.pages.Articles(r.Context(), r.URL.Query().Get("pillar"))
	s.writePage(w, r, "articles", func(ctx context.Context) ([]byte, error) {
		return s.tpl.RenderArticles(ctx, page)
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pages.Article(r.Context(), r.PathValue("slug"))
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writePage(w, r, "article", func(ctx context.Context) ([]byte, error) {
		return s.tpl.RenderArticle(ctx, page)
	})
	s.recordCanonicalURL(r.Context(), page.Article)
}

// recordCanonicalURL writes the article's public URL back to the store in
// the background. A failure is logged by the facade and never affects the
// response; the pair is retried only after writeBackRetry.
func (s *Server) recordCanonicalURL(ctx context.Context, a magazine.Article) {
	canonical := strings.TrimRight(s.cfg.Site.SiteURL, "/") + site.ArticlePath(a.Slug)
	if a.PublishedURL == canonical {
		return
	}
	key := a.ID + "\x00" + canonical
	// zero time: written or in flight; otherwise the earliest retry
	if v, loaded := s.recorded.LoadOrStore(key, time.Time{}); loaded {
		retryAt := v.(time.Time)
		if retryAt.IsZero() || s.now().Before(retryAt) {
			return
		}
		if !s.recorded.CompareAndSwap(key, retryAt, time.Time{}) {
			return
		}
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.content.RecordPublishedURL(ctx, a.ID, canonical); err != nil {
			s.recorded.Store(key, s.now().Add(writeBackRetry))
		}
	}()
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	email, err := readEmail(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Valid email is required"})
		return
	}

	res := s.news.Subscribe(r.Context(), email)
	switch res.Status {
	case newsletter.StatusInvalid:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": res.Message})
	case newsletter.StatusFailed:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": res.Message})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": res.Message, "status": string(res.Status)})
	}
}

// readEmail accepts either a JSON body {"email": "..."} or a form post.
func readEmail(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNewsletterBody)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var req newsletter.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			return "", err
		}
		return req.Email, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("email"), nil
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	out, err := render.Sitemap(s.cfg.Site.SiteURL, s.routes.BuildAll(r.Context()))
	if err != nil {
		s.log.Error("render sitemap", "error", err)
		http.Error(w, "sitemap error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	out, err := s.tpl.RenderNotFound(r.Context(), s.pages.NotFound(r.URL.Path))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(out)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context) ([]byte, error)) {
	out, err := fn(r.Context())
	if err != nil {
		s.log.Error("render page", "page", name, "path", r.URL.Path, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, r, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
