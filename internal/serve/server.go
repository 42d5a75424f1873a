// Package serve exposes the magazine over HTTP.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inflections/internal/app"
	"inflections/internal/domain/config"
	"inflections/internal/logger"
	"inflections/internal/magazine"
	"inflections/internal/newsletter"
	"inflections/internal/render"
)

type Options struct {
	Config     config.Config
	Content    *magazine.Service
	Newsletter *newsletter.Service
	Logger     *logger.Logger

	// Reload re-imports WatchDir into the local store. Both must be set for
	// the seed watcher to run.
	Reload   func(ctx context.Context) error
	WatchDir string
}

type Server struct {
	cfg     config.Config
	content *magazine.Service
	news    *newsletter.Service
	routes  *app.RouteBuilder
	pages   *app.Pages
	tpl     render.Renderer
	log     *logger.Logger
	limiter *clientLimiter

	// article id + url -> time.Time, see recordCanonicalURL
	recorded sync.Map
	now      func() time.Time

	reload    func(ctx context.Context) error
	watchDir  string
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(opt Options) (*Server, error) {
	if opt.Content == nil || opt.Newsletter == nil {
		return nil, errors.New("serve: content and newsletter services are required")
	}
	tpl, err := render.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("serve: failed to create template renderer: %w", err)
	}
	log := opt.Logger
	if log == nil {
		log = logger.Nop()
	}
	pages := &app.Pages{
		Site:     opt.Config.Site,
		Content:  opt.Content,
		Markdown: render.NewMarkdownRenderer(),
		Log:      log,
	}
	nc := opt.Config.Newsletter
	return &Server{
		cfg:      opt.Config,
		content:  opt.Content,
		news:     opt.Newsletter,
		routes:   &app.RouteBuilder{Content: opt.Content},
		pages:    pages,
		tpl:      tpl,
		log:      log,
		limiter:  newClientLimiter(nc.RequestsPerSecond, nc.Burst, opt.Config.Server.TrustProxy),
		now:      time.Now,
		reload:   opt.Reload,
		watchDir: opt.WatchDir,
	}, nil
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Handler builds the routing table. Unknown paths fall through to the
// not-found page.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /issues", s.handleIssues)
	mux.HandleFunc("GET /issues/{number}", s.handleIssue)
	mux.HandleFunc("GET /articles", s.handleArticles)
	mux.HandleFunc("GET /articles/{slug}", s.handleArticle)
	mux.HandleFunc("POST /api/newsletter", s.limiter.middleware(s.handleNewsletter))

	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/", s.handleNotFound)
	return s.logRequests(mux)
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.reload != nil && s.watchDir != "" {
		if err := s.startWatch(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
