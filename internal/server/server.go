package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/handlers"
	"github.com/akolanti/DocQA/internal/mcpTools"
	"github.com/akolanti/DocQA/internal/middleware"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type Params struct {
	ListenAddr  string
	Service     rag.Service
	StorageRoot string
	TempDir     string
}

var _logger = sync.OnceValue(func() *logger_i.Logger { return logger_i.NewLogger("Server") })

// NewRouter mounts every route of the service.
func NewRouter(p Params) http.Handler {
	r := utils.NewRouter()
	documents := handlers.NewDocumentHandler(p.Service, p.TempDir)

	r.Router.Get("/healthz", middleware.Wrap(handlers.HealthHandler))
	r.Router.Post("/upload", middleware.Wrap(documents.UploadHandler))
	r.Router.Post("/query", middleware.Wrap(documents.QueryHandler))
	r.Router.Handle(config.UploadsURLPrefix+"/*", middleware.Handler(handlers.ArtifactHandler(p.StorageRoot)))
	r.Router.Handle("/mcp", middleware.Handler(mcpTools.Handler(mcpTools.NewServer(p.Service))))

	return r.Router
}

func CreateServer(p Params) *http.Server {
	return &http.Server{
		Addr:         p.ListenAddr,
		Handler:      NewRouter(p),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down within ShutdownContextTimeout.
func Run(ctx context.Context, server *http.Server) error {
	errChan := make(chan error, 1)
	go func() {
		_logger().Info("Server is listening at", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_logger().Error("Server crashed", "error", err, "addr", server.Addr)
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	_logger().Info("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(shutdownCtx); err != nil {
		_logger().Error("Could not shutdown gracefully", "error", err)
		return err
	}
	<-errChan
	_logger().Info("Gracefully shut down")
	return nil
}
