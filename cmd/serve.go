package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowatlas/flowmap-cli/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered outputs and run history over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context())
			if err != nil {
				zap.L().Error("list runs", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			type runView struct {
				ID        string    `json:"id"`
				Status    string    `json:"status"`
				CreatedAt time.Time `json:"created_at"`
				UpdatedAt time.Time `json:"updated_at"`
			}
			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				views = append(views, runView{
					ID:        run.ID,
					Status:    string(run.Status),
					CreatedAt: run.CreatedAt,
					UpdatedAt: run.UpdatedAt,
				})
			}
			writeJSON(w, http.StatusOK, views)
		})

		r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			runID := chi.URLParam(req, "id")
			runs, err := st.ListRuns(req.Context())
			if err != nil {
				zap.L().Error("list runs", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			for _, run := range runs {
				if run.ID != runID {
					continue
				}
				manifest, err := pipeline.DecodeManifest([]byte(run.Manifest))
				if err != nil {
					writeJSON(w, http.StatusOK, map[string]string{"id": run.ID, "status": string(run.Status)})
					return
				}
				writeJSON(w, http.StatusOK, manifest)
				return
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		})

		r.Handle("/outputs/*", http.StripPrefix("/outputs/",
			http.FileServer(http.Dir(cfg.Render.OutputDir))))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
