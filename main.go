package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"ciudamos/authority"
	"ciudamos/config"
	"ciudamos/cronjobs"
	"ciudamos/db"
	"ciudamos/geocode"
	"ciudamos/handlers"
	"ciudamos/metrics"
	"ciudamos/mlmodel"
	"ciudamos/nlp"
	"ciudamos/routes"
	"ciudamos/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	kv, err := db.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, cfg.FirebaseCredentials)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StoreDriver, err)
	}
	reports, err := store.Open(ctx, kv, store.WithObserver(metrics.StoreObserver{}))
	if err != nil {
		log.Fatalf("Failed to load reports: %v", err)
	}
	defer reports.Close()
	log.WithFields(log.Fields{"driver": cfg.StoreDriver, "reports": len(reports.Reports())}).Info("report store ready")

	h := &handlers.Handlers{
		Store:      reports,
		Classifier: newClassifier(cfg),
		Directory:  loadDirectory(ctx, cfg.AuthoritiesFile),
		Redactor:   nlp.EmailRedactor{},
	}

	if cfg.MapsCredentials != "" {
		mapsClient, err := geocode.InitMapsClient(cfg.MapsCredentials)
		if err != nil {
			log.WithError(err).Warn("reverse geocoding disabled")
		} else {
			h.Geocoder = geocode.NewMapsGeocoder(mapsClient)
		}
	}

	if cfg.NaturalLanguageCredentials != "" {
		langClient, err := nlp.InitLanguageClient(ctx, cfg.NaturalLanguageCredentials)
		if err != nil {
			log.WithError(err).Warn("entity redaction disabled, masking e-mail addresses only")
		} else {
			defer nlp.CloseLanguageClient()
			h.Redactor = nlp.NewLanguageRedactor(langClient)
		}
	}

	// Mirror the envelope to Firestore when it is not already the primary store
	if cfg.FirebaseCredentials != "" && cfg.StoreDriver != "firestore" {
		firestoreClient, err := db.InitFirestore(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.WithError(err).Warn("report mirror disabled")
		} else {
			defer db.CloseFirestore()
			c, err := cronjobs.InitCronJobs(cfg.MirrorSchedule, reports, db.NewFirestoreKV(firestoreClient))
			if err != nil {
				log.WithError(err).Warn("report mirror disabled")
			} else {
				defer c.Stop()
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRouter(h),
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("IA server en http://localhost:%s (mode %s)", cfg.Port, h.Classifier.Mode())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	log.Info("Server exited")
}

// newClassifier returns the mock when no OpenAI key is configured.
func newClassifier(cfg *config.Config) mlmodel.Classifier {
	if cfg.MockMode() {
		log.Warn("OPENAI_API_KEY not set, analyze-report answers in mock mode")
		return mlmodel.MockClassifier{}
	}
	oc, err := mlmodel.NewOpenAIClassifier(mlmodel.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.AITimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create OpenAI classifier: %v", err)
	}
	limited := mlmodel.NewLimitedClassifier(oc, cfg.AIRateLimit, 1)
	if cfg.AICacheTTL <= 0 {
		return limited
	}
	return mlmodel.NewCachedClassifier(limited, cfg.AICacheTTL)
}

func loadDirectory(ctx context.Context, path string) *authority.Directory {
	dir, err := authority.LoadDirectory(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Warn("authorities file not found, dashboard endpoints will return 404")
		return authority.NewDirectory()
	}
	if err != nil {
		log.Fatalf("Failed to load authorities: %v", err)
	}
	if err := dir.Watch(ctx); err != nil {
		log.WithError(err).Warn("authorities hot reload disabled")
	}
	return dir
}
