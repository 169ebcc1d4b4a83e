// Package health содержит health check обработчики.
package health

import (
	"adminpanel/internal/respond"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// checkTimeout время на проверку одного компонента
const checkTimeout = 3 * time.Second

// Status ответ health check
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Server представляет health check обработчики
type Server struct {
	db     DatabaseInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewServer создает новый health check сервер
func NewServer(db DatabaseInterface, logger *zap.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Register регистрирует маршруты на роутере
func (s *Server) Register(router *mux.Router) {
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)
	router.HandleFunc("/live", s.liveHandler).Methods(http.MethodGet)
}

// healthHandler обрабатывает запросы /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.checkDatabase(r.Context()); err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		s.write(w, http.StatusServiceUnavailable, "unhealthy", err)
		return
	}
	s.write(w, http.StatusOK, "healthy", nil)
}

// readyHandler обрабатывает запросы /ready
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.checkReadiness(r.Context()); err != nil {
		s.logger.Error("Readiness check failed", zap.Error(err))
		s.write(w, http.StatusServiceUnavailable, "not ready", err)
		return
	}
	s.write(w, http.StatusOK, "ready", nil)
}

// liveHandler обрабатывает запросы /live
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, "alive", nil)
}

func (s *Server) write(w http.ResponseWriter, code int, status string, err error) {
	body := Status{Status: status, Timestamp: s.now().Format(time.RFC3339)}
	if err != nil {
		body.Error = err.Error()
	}
	respond.JSON(w, code, body)
}

// checkDatabase проверяет подключение к базе данных
func (s *Server) checkDatabase(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// checkReadiness проверяет готовность к работе
func (s *Server) checkReadiness(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := s.checkDatabase(ctx); err != nil {
		return fmt.Errorf("database is not ready: %w", err)
	}

	return nil
}
