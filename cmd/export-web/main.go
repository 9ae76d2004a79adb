package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lunahq/creator-export/internal/export"
	"github.com/lunahq/creator-export/internal/logging"
	"github.com/lunahq/creator-export/internal/source"
)

// CLI flags
var (
	portFlag   int
	bucketFlag string
)

var rootCmd = &cobra.Command{
	Use:   "export-web",
	Short: "Platform-ready content export service",
	Long: `Export Web serves the multi-platform content export pipeline: it takes
source images plus a caption template and returns a ZIP archive with
platform-specific resized variants and per-platform formatted captions.

Examples:
  export-web
  export-web --port 9090
  export-web --bucket my-vault-media`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&bucketFlag, "bucket", os.Getenv("EXPORT_MEDIA_BUCKET"), "S3 bucket holding vault media (s3Key sources)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	ctx := context.Background()

	var s3Client *s3.Client
	if bucketFlag != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS config")
		}
		s3Client = s3.NewFromConfig(awsCfg)
		log.Info().Str("bucket", bucketFlag).Msg("S3 media source enabled")
	} else {
		log.Warn().Msg("No media bucket configured, s3Key sources will fail to resolve")
	}

	srv := &server{
		runner: &export.Runner{
			Fetch: &source.Client{
				HTTP:   &http.Client{Timeout: 30 * time.Second},
				S3:     s3Client,
				Bucket: bucketFlag,
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/export", srv.handleExport)
	mux.HandleFunc("/api/export/platforms", srv.handlePlatforms)

	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", portFlag)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}()

	log.Info().Int("port", portFlag).Msg("Starting export server")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Export-File-Count, X-Export-Total-Bytes, X-Export-Platforms")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
