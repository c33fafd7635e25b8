package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/gateway"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/hub"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/view"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

const (
	wsPath    = "/ws"
	tablePath = "/api/table"
)

// AssetReader is the read side of the asset store.
type AssetReader interface {
	Assets() []models.Asset
	Asset(id int) (models.Asset, bool)
}

type Options struct {
	Title     string
	LogoBase  string
	ChartRand view.Rand    // must be safe for concurrent use
	Ticks     func() int64 // optional, reported by /healthz
}

type Server struct {
	logger *zap.Logger
	assets AssetReader
	hub    *hub.Hub
	opts   Options
}

func New(logger *zap.Logger, assets AssetReader, h *hub.Hub, opts Options) *Server {
	return &Server{
		logger: logger,
		assets: assets,
		hub:    h,
		opts:   opts,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.index)
	r.Get("/healthz", s.health)
	r.Get(wsPath, s.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/assets", s.listAssets)
		r.Get("/assets/{id}", s.getAsset)
		r.Get("/table", s.table)
	})

	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := view.RenderHTML(&buf, view.Page{
		Title:     s.opts.Title,
		Rows:      s.rows(),
		WSPath:    wsPath,
		TablePath: tablePath,
	})
	if err != nil {
		s.logger.Error("Render Error", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// GET /api/assets
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assets.Assets())
}

// GET /api/assets/{id}
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "asset id must be an integer", http.StatusBadRequest)
		return
	}

	asset, found := s.assets.Asset(id)
	if !found {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

// GET /api/table, polled by the page after price events. Charts are redrawn on every call.
func (s *Server) table(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rows())
}

func (s *Server) rows() []view.Row {
	return view.BuildRows(s.assets.Assets(), view.Options{LogoBase: s.opts.LogoBase, Rand: s.opts.ChartRand})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	var ticks int64
	if s.opts.Ticks != nil {
		ticks = s.opts.Ticks()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "ticks": ticks})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := gateway.NewClient(conn, s.hub, s.logger)
	client.Start()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
