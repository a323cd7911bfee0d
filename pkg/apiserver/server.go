// Package apiserver exposes the dataset store over HTTP with gin.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/kdeps/intake/pkg"
	"github.com/kdeps/intake/pkg/dataset"
	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

const (
	// MaxMultipartMemory is how much of a multipart body gin keeps in memory
	// before spilling parts to temporary files.
	MaxMultipartMemory = 32 << 20
)

// DatasetStore is the part of *dataset.Store the handlers use.
type DatasetStore interface {
	Fs() afero.Fs
	Create(ctx context.Context, req dataset.CreateRequest) (*dataset.CreateResult, error)
	List(ctx context.Context) ([]string, error)
	ResolvePair(ctx context.Context, id string) (*dataset.Pair, error)
	ResolveAllPairs(ctx context.Context) (*dataset.Resolution, error)
	DeleteAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*dataset.Stats, error)
}

// Config holds the HTTP-facing settings.
type Config struct {
	Host               string
	Port               int
	APIToken           string
	CORSOrigins        []string
	TrustedProxies     []string
	MaxUploadBytes     int64
	ArchiveMemoryLimit int64
	// TempDir receives streaming archives. Empty means the OS default.
	TempDir string
}

// ConfigFromEnvironment converts loaded environment settings.
func ConfigFromEnvironment(env *environment.Environment) (Config, error) {
	maxUpload, err := env.MaxUploadBytes()
	if err != nil {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_SIZE %q: %w", env.MaxUploadSize, err)
	}
	archiveLimit, err := env.ArchiveMemoryLimitBytes()
	if err != nil {
		return Config{}, fmt.Errorf("invalid ARCHIVE_MEMORY_LIMIT %q: %w", env.ArchiveMemoryLimit, err)
	}

	origins := env.AllowedOrigins()
	for _, origin := range origins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return Config{}, fmt.Errorf("invalid CORS origin %q: must start with http:// or https://", origin)
		}
	}

	return Config{
		Host:               env.Host,
		Port:               env.Port,
		APIToken:           env.APIToken,
		CORSOrigins:        origins,
		TrustedProxies:     env.TrustedProxyList(),
		MaxUploadBytes:     maxUpload,
		ArchiveMemoryLimit: archiveLimit,
	}, nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server wires the store to a gin engine.
type Server struct {
	store  DatasetStore
	cfg    Config
	logger *logging.Logger
	router *gin.Engine
}

// NewServer builds the router. The gin mode is left to the caller.
func NewServer(store DatasetStore, cfg Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	router := gin.New()
	router.MaxMultipartMemory = MaxMultipartMemory

	if len(cfg.TrustedProxies) > 0 {
		logger.Info(messages.MsgTrustedProxiesFound, "proxies", cfg.TrustedProxies)
		router.ForwardedByClientIP = true
		if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, fmt.Errorf("unable to set trusted proxies: %w", err)
		}
	} else if err := router.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("unable to clear trusted proxies: %w", err)
	}

	if cfg.APIToken == "" {
		logger.Warn(messages.MsgAPITokenNotSet)
	}

	s := &Server{store: store, cfg: cfg, logger: logger, router: router}
	SetupRoutes(router, s)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: pkg.DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(messages.MsgStartAPIServer, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), pkg.DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	s.logger.Info(messages.MsgAPIServerStopped)
	return nil
}
