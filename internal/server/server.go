// ABOUTME: HTTP/JSON transport for the credential RPC services plus a gRPC health listener
// ABOUTME: Thin adapter; all authorization decisions live in the service layer

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/config"
	"github.com/lumenbase/auth-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the credential services over HTTP/JSON and serves gRPC
// health checks when a gRPC address is configured.
type Server struct {
	cfg     *config.Config
	apiKeys *service.ApiKeyService
	jwt     *service.JwtService
	users   *service.UserAuthService
	logger  *slog.Logger

	httpServer *http.Server
	grpcServer *grpc.Server
}

// New creates a Server, wires up all routes and middleware, and returns it
// ready to run.
func New(cfg *config.Config, apiKeys *service.ApiKeyService, jwt *service.JwtService, users *service.UserAuthService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		apiKeys: apiKeys,
		jwt:     jwt,
		users:   users,
		logger:  logger.With("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		// Credential checks are bcrypt-bound; throttle per client IP
		if s.cfg.RateLimit.RequestLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit.RequestLimit, s.cfg.RateLimit.Window))
		}

		r.Post("/api-keys", s.handleIssueApiKey)
		r.Delete("/api-keys/{hash}", s.handleRevokeApiKey)
		r.Post("/jwt", s.handleCreateJwt)
		r.Post("/jwt/validate", s.handleValidateJwt)
		r.Post("/users/authenticate", s.handleAuthenticateUser)
	})

	return r
}

// Run starts the HTTP listener (and the gRPC health listener if configured)
// and blocks until ctx is cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Server.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", s.cfg.Server.GRPCAddr, err)
		}

		s.grpcServer = grpc.NewServer()
		healthSrv := health.NewServer()
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(s.grpcServer, healthSrv)

		go func() {
			s.logger.Info("grpc health server listening", "addr", s.cfg.Server.GRPCAddr)
			if err := s.grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.shutdown()
	case err := <-errCh:
		_ = s.shutdown()
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIssueApiKey(w http.ResponseWriter, r *http.Request) {
	var req service.IssueApiKeyRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.apiKeys.IssueApiKey(r.Context(), &req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeApiKey(w http.ResponseWriter, r *http.Request) {
	req := service.RevokeApiKeyRequest{Hash: chi.URLParam(r, "hash")}

	resp, err := s.apiKeys.RevokeApiKey(r.Context(), &req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJwt(w http.ResponseWriter, r *http.Request) {
	var req service.CreateJwtRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.jwt.CreateJwt(r.Context(), &req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateJwt(w http.ResponseWriter, r *http.Request) {
	var req service.ValidateJwtRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.jwt.ValidateJwt(r.Context(), &req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthenticateUser(w http.ResponseWriter, r *http.Request) {
	var req service.AuthenticateUserRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.users.Authenticate(r.Context(), &req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode parses a JSON request body, writing a 400 response on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: codes.InvalidArgument.String()})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeStatusError translates a service-layer status error to an HTTP
// response, preserving the error kind in the body.
func writeStatusError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	writeJSON(w, httpStatus(st.Code()), errorBody{Error: st.Message(), Code: st.Code().String()})
}

// httpStatus maps RPC status codes to HTTP status codes.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
