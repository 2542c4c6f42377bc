package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gisa-quiz/backend/internal/auth"
	"github.com/gisa-quiz/backend/internal/config"
	"github.com/gisa-quiz/backend/internal/drill"
	"github.com/gisa-quiz/backend/internal/generator"
	"github.com/gisa-quiz/backend/internal/importer"
	"github.com/gisa-quiz/backend/internal/middleware"
	"github.com/gisa-quiz/backend/internal/notes"
	"github.com/gisa-quiz/backend/internal/questions"
	"github.com/gisa-quiz/backend/internal/sessions"
	"github.com/gisa-quiz/backend/internal/stores"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg := config.Load()

	// Initialize backend
	store, err := stores.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}
	defer store.Close()

	// Question generator: mock data or a local CLI when requested, otherwise the
	// API; disabled when none is configured
	var gen *generator.Generator
	switch {
	case cfg.MockGenerator:
		gen = generator.NewGenerator(generator.Options{Mock: true})
	case cfg.GeneratorCLIPath != "":
		gen = generator.NewGenerator(generator.Options{CLIPath: cfg.GeneratorCLIPath})
	case cfg.AnthropicAPIKey != "":
		gen = generator.NewGenerator(generator.Options{Model: cfg.AnthropicModel, APIKey: cfg.AnthropicAPIKey})
	default:
		log.Println("[generator] neither ANTHROPIC_API_KEY nor GENERATOR_CLI_PATH set, question generation disabled")
	}

	questionService := questions.NewService(store, gen)

	if cfg.SeedQuestions {
		seed, err := importer.Seed()
		if err != nil {
			log.Fatalf("Failed to load seed questions: %v", err)
		}
		n, err := questionService.EnsureSeeded(context.Background(), seed)
		if err != nil {
			log.Fatalf("Failed to seed questions: %v", err)
		}
		if n > 0 {
			log.Printf("Seeded %d questions into empty %s store", n, store.Name())
		}
	}

	// Client sessions
	sessionStore := sessions.NewStore()
	janitor := sessions.NewJanitor(sessionStore, cfg.SessionTTL, cfg.SessionSweepInterval)
	if err := janitor.Start(); err != nil {
		log.Fatalf("Failed to start session janitor: %v", err)
	}
	defer janitor.Stop()

	// Initialize services and handlers
	authService := auth.NewService(store, sessionStore, auth.NewTokens(cfg.JWTSecret))
	noteService := notes.NewService(store)

	authHandler := auth.NewHandler(authService)
	questionHandler := questions.NewHandler(questionService)
	noteHandler := notes.NewHandler(noteService)
	drillHandler := drill.NewHandler(drill.NewService(questionService, noteService))

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/username-available", authHandler.UsernameAvailable).Methods("GET")
	api.HandleFunc("/questions", questionHandler.ListQuestions).Methods("GET")
	api.HandleFunc("/questions/filters", questionHandler.GetFilters).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(authService))
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/drill", drillHandler.GetState).Methods("GET")
	protected.HandleFunc("/drill/filter", drillHandler.SetFilter).Methods("PUT")
	protected.HandleFunc("/drill/start", drillHandler.Start).Methods("POST")
	protected.HandleFunc("/drill/answer", drillHandler.Answer).Methods("POST")
	protected.HandleFunc("/drill/next", drillHandler.Next).Methods("POST")
	protected.HandleFunc("/drill/restart", drillHandler.Restart).Methods("POST")
	protected.HandleFunc("/drill/review", drillHandler.ShowReview).Methods("POST")
	protected.HandleFunc("/drill/review", drillHandler.CloseReview).Methods("DELETE")
	protected.HandleFunc("/drill/result", drillHandler.GetResult).Methods("GET")
	protected.HandleFunc("/drill/wrong-answers", drillHandler.GetWrongAnswers).Methods("GET")
	protected.HandleFunc("/drill/wrong-answers/save", drillHandler.SaveWrongAnswers).Methods("POST")

	protected.HandleFunc("/notes", noteHandler.ListNotes).Methods("GET")
	protected.HandleFunc("/notes", noteHandler.SaveNote).Methods("POST")
	protected.HandleFunc("/notes/{id}", noteHandler.DeleteNote).Methods("DELETE")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminKey(cfg.AdminAPIKey))
	admin.HandleFunc("/questions/import", questionHandler.ImportQuestions).Methods("POST")
	admin.HandleFunc("/questions/generate", questionHandler.GenerateQuestions).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","backend":"` + store.Name() + `"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Admin-Key"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s (backend=%s)", cfg.Port, store.Name())
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
