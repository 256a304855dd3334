package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vilisasu/bibleai-api/internal/api"
	apiMiddleware "github.com/vilisasu/bibleai-api/internal/api/middleware"
	"github.com/vilisasu/bibleai-api/internal/observe"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Order matters: the trace middleware reads the span started by
	// observe.Middleware and the request id set by RequestID.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{apiMiddleware.TraceHeader, "X-Correlation-ID"},
		MaxAge:         300,
	}))
	r.Use(observe.Middleware(app.metrics))
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	prefix := app.config.Server.APIPrefix
	info := api.NewInfoHandler(app.config.App, prefix, app.config.LLM.Model, app.audio != nil)
	verseHandler := api.NewVerseHandler(app.devotional)
	chatHandler := api.NewChatHandler(app.chat, prefix+"/bible-chat/query")

	// Typed nil services would slip past the handlers' nil checks.
	var speechResponder api.SpeechResponder
	if app.speech != nil {
		speechResponder = app.speech
	}
	speechHandler := api.NewSpeechHandler(speechResponder)

	var clips api.ClipService
	if app.audio != nil {
		clips = app.audio
	}
	audioHandler := api.NewAudioHandler(clips, prefix+"/audio/download")

	r.Route(prefix, func(r chi.Router) {
		r.Get("/verses/random", verseHandler.GetRandom)

		r.Route("/bible-chat", func(r chi.Router) {
			r.Post("/query", chatHandler.Query)
			r.Get("/health", chatHandler.Health)
			r.Get("/examples", chatHandler.Examples)
		})

		r.Route("/stt", func(r chi.Router) {
			r.Post("/bible_ai_chat", speechHandler.Chat)
			r.Get("/info", speechHandler.Info)
		})

		r.Route("/audio", func(r chi.Router) {
			r.Post("/generate", audioHandler.Generate)
			r.Get("/download/{id}", audioHandler.Download)
		})
	})

	r.Get("/", info.Root)
	r.Get("/health", info.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(info.NotFound)
	r.MethodNotAllowed(info.MethodNotAllowed)

	return r
}
