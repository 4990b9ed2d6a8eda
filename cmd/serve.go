package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/groups"
	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/store"
	"github.com/weekintas/valentino-matchingas/internal/survey"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a read-only results server",
	Long:  "Serves stored match matrices and resolved respondent results over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /projects/{code}/matrix", func(w http.ResponseWriter, r *http.Request) {
			code := r.PathValue("code")

			svy, matrix, err := loadProjectMatrix(r, st, code)
			if err != nil {
				writeError(w, err)
				return
			}

			type pair struct {
				Resp1 int     `json:"resp1_id"`
				Resp2 int     `json:"resp2_id"`
				Score float64 `json:"score"`
			}
			pairs := make([]pair, 0, matrix.Len())
			matrix.Pairs(func(a, b int, score float64) {
				pairs = append(pairs, pair{Resp1: a, Resp2: b, Score: score})
			})

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"project":     code,
				"respondents": len(svy.Respondents),
				"pairs":       pairs,
			})
		})

		mux.HandleFunc("GET /projects/{code}/respondents/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			code := r.PathValue("code")
			id, err := strconv.Atoi(r.PathValue("id"))
			if err != nil {
				http.Error(w, `{"error":"invalid respondent id"}`, http.StatusBadRequest)
				return
			}

			svy, matrix, err := loadProjectMatrix(r, st, code)
			if err != nil {
				writeError(w, err)
				return
			}
			if id < 0 || id >= len(svy.Respondents) {
				http.Error(w, `{"error":"respondent not found"}`, http.StatusNotFound)
				return
			}

			groupConfig, err := loadGroupConfig(svy)
			if err != nil {
				writeError(w, err)
				return
			}
			resolver := groups.NewResolver(svy.Respondents, matrix, groupConfig, matchingDefaults())

			resolved, topMatch, err := resolver.Resolve(svy.Respondents[id])
			if err != nil {
				writeError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"project":   code,
				"full_name": svy.Respondents[id].FullName,
				"top_match": topMatch,
				"groups":    resolved,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// loadProjectMatrix fetches a project, parses its data file, and loads the
// stored matrix.
func loadProjectMatrix(r *http.Request, st store.Store, code string) (*survey.Survey, *matching.Matrix, error) {
	project, err := st.GetProject(r.Context(), code)
	if err != nil {
		return nil, nil, err
	}
	svy, err := loadSurvey(project)
	if err != nil {
		return nil, nil, err
	}
	matrix, err := st.LoadMatrix(r.Context(), code, len(svy.Respondents))
	if err != nil {
		return nil, nil, err
	}
	return svy, matrix, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrProjectNotFound) {
		status = http.StatusNotFound
	}
	zap.L().Error("request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": eris.Cause(err).Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
