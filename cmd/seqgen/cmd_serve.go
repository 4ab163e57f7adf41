package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/config"
	"github.com/hlop3z/seqgen/internal/writer"
	"github.com/hlop3z/seqgen/pkg/seqgen"
)

// serveCmd previews the generated models over HTTP.
func serveCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview generated models over HTTP",
		Long: `Serve regenerates the models in memory on every request, so edits to the
schema document or database show up on reload. Nothing is written to disk.

Routes:
  GET /healthz         liveness probe
  GET /models          JSON list of tables and their files
  GET /models/{file}   generated JavaScript source`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Print(cli.FormatNote("serving models on http://" + addr))
			return serve(ctx, addr, newServer(cfg))
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", "localhost:8077", "listen address")
	return cmd
}

// serve runs the HTTP server until ctx is canceled, then shuts it down.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return alerr.Wrap(alerr.EInternalError, err, "server error").With("addr", addr)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Debug("shutting down preview server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// modelEntry is one row of the /models listing.
type modelEntry struct {
	Table  string `json:"table"`
	Model  string `json:"model"`
	File   string `json:"file,omitempty"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// previewServer regenerates the models for each request.
type previewServer struct {
	cfg *config.Config
}

// newServer builds the preview router for cfg.
func newServer(cfg *config.Config) http.Handler {
	s := &previewServer{cfg: cfg}

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/models", s.handleList)
	r.Get("/models/*", s.handleFile)
	return r
}

func (s *previewServer) render(ctx context.Context) (*writer.Memory, *seqgen.Report, error) {
	gen, err := newGenerator(s.cfg)
	if err != nil {
		return nil, nil, err
	}
	mem := writer.NewMemory(gen.WriterOptions())
	report, err := generate(ctx, s.cfg, gen, mem)
	if report == nil {
		return nil, nil, err
	}
	// Failed tables are reported per entry; the rest still preview.
	return mem, report, nil
}

func (s *previewServer) handleList(w http.ResponseWriter, r *http.Request) {
	_, report, err := s.render(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]modelEntry, 0, len(report.Entries))
	for _, e := range report.Entries {
		me := modelEntry{Table: e.Table, Model: e.Model, File: e.File, Result: e.Result.String()}
		if e.Err != nil {
			me.Error = errorMessage(e.Err)
		}
		entries = append(entries, me)
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *previewServer) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	mem, _, err := s.render(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	src, ok := mem.File(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no model file " + name})
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write([]byte(src))
}

// errorMessage returns the message of the outermost coded error, without
// the context and cause that Error() appends.
func errorMessage(err error) string {
	var ae *alerr.Error
	if errors.As(err, &ae) {
		return ae.GetMessage()
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": errorMessage(err)}
	if code := alerr.GetErrorCode(err); code != "" {
		body["code"] = string(code)
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
