package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"magiceraser/internal/http/handlers"
	"magiceraser/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	DefaultLocale   string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute,
			middleware.SkipPathSuffix("/pointer", "/pointer/ws")))
	}
	r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/messages", app.Messages)

		r.Post("/sessions", app.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.DeleteSession)
			r.Post("/image", app.UploadImage)
			r.Put("/viewport", app.SetViewport)
			r.Put("/brush", app.SetBrush)
			r.Post("/pointer", app.Pointer)
			r.Get("/pointer/ws", app.PointerStream)
			r.Delete("/mask", app.ClearMask)
			r.Get("/mask.png", app.MaskPNG)
			r.Get("/display.png", app.DisplayPNG)
			r.Post("/submit", app.Submit)
			r.Get("/result", app.Result)
			r.Get("/bundle.zip", app.Bundle)
			r.Post("/reset", app.Reset)
			r.Get("/attempts", app.Attempts)
		})
	})

	return r
}
