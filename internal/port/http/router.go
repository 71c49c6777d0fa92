package http

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the full route table around h.
func NewRouter(h *Handler, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(RequestLogger(log))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", h.HealthCheck)
	mux.Route("/v1", func(r chi.Router) {
		r.Route("/owners/{ownerID}", func(r chi.Router) {
			SetupOwnerRoutes(r, h)
		})
		SetupListingRoutes(r, h)
		SetupPostRoutes(r, h)
		SetupAdminRoutes(r, h)
		r.Get("/watch", h.Watch)
	})
	return mux
}

// SetupOwnerRoutes wires everything an instructor does under their own key.
func SetupOwnerRoutes(r chi.Router, h *Handler) {
	r.Post("/drafts", h.CreateDraft)
	r.Get("/drafts", h.ListOwnerDrafts)
	r.Post("/drafts/{draftID}/publish", h.PublishDraft)
	r.Post("/listings", h.CreateListing)
	r.Patch("/listings/{localID}", h.UpdateListing)
	r.Delete("/listings/{localID}", h.DeleteListing)
	r.Get("/published", h.ListOwnerPublished)

	r.Post("/posts", h.CreatePost)
	r.Delete("/posts/{localID}", h.DeletePost)

	r.Put("/handoff/{key}", h.PutHandoff)
	r.Get("/handoff/{key}", h.TakeHandoff)
	r.Post("/images", h.UploadImage)
}

func SetupListingRoutes(r chi.Router, h *Handler) {
	r.Get("/catalog", h.ListCatalog)
	r.Route("/listings/{globalID}", func(r chi.Router) {
		r.Get("/", h.GetListing)
		r.Post("/reviews", h.AddReview)
		r.Post("/enrollments", h.Enroll)
	})
}

func SetupPostRoutes(r chi.Router, h *Handler) {
	r.Route("/posts/{postID}", func(r chi.Router) {
		r.Get("/", h.GetPost)
		r.Get("/comments", h.ListComments)
		r.Post("/comments", h.AddComment)
		r.Put("/likes/{userID}", h.LikePost)
		r.Delete("/likes/{userID}", h.UnlikePost)
	})
}

func SetupAdminRoutes(r chi.Router, h *Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Put("/listings/{globalID}/status", h.SetStatus)
		r.Post("/reconcile/listings/{globalID}", h.ReconcileListing)
		r.Post("/reconcile/posts/{postID}", h.ReconcilePost)
		r.Post("/reconcile/sweep", h.Sweep)
	})
}

// RequestLogger logs one line per request with its status and latency.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("HTTP")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
