package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authgate/internal/constants"
	"github.com/yasinhessnawi1/authgate/internal/utils"
)

// Health status values
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
	ComponentUp       = "up"
	ComponentDown     = "down"
	ComponentSkipped  = "not_configured"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Mail     string `json:"mail"`
	Version  string `json:"version,omitempty"`
}

// GenericHandler serves the routes that are not tied to a resource:
// the root banner, health, and the fallbacks for unknown routes.
type GenericHandler struct {
	db          DatabaseHealthChecker
	mail        MailVerifier
	version     string
	dbTimeout   time.Duration
	mailTimeout time.Duration
}

// NewGenericHandler creates a new GenericHandler. mail may be nil when no
// transport is configured.
func NewGenericHandler(db DatabaseHealthChecker, mail MailVerifier, version string, mailTimeout time.Duration) *GenericHandler {
	if mailTimeout <= 0 {
		mailTimeout = constants.DefaultMailVerifyTimeout
	}
	return &GenericHandler{
		db:          db,
		mail:        mail,
		version:     version,
		dbTimeout:   constants.DBHealthCheckTimeout,
		mailTimeout: mailTimeout,
	}
}

// Root answers GET / with a plain text banner
func (h *GenericHandler) Root(w http.ResponseWriter, r *http.Request) {
	utils.Text(w, http.StatusOK, constants.MsgServiceRunning)
}

// Health reports database and mail reachability.
// A database failure makes the service unavailable; a mail failure only degrades it.
func (h *GenericHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   StatusOK,
		Database: ComponentUp,
		Mail:     ComponentSkipped,
		Version:  h.version,
	}
	status := http.StatusOK

	dbCtx, cancel := context.WithTimeout(r.Context(), h.dbTimeout)
	defer cancel()
	if err := h.db.HealthCheck(dbCtx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		resp.Database = ComponentDown
		resp.Status = StatusUnavailable
		status = http.StatusServiceUnavailable
	}

	if h.mail != nil {
		mailCtx, cancelMail := context.WithTimeout(r.Context(), h.mailTimeout)
		defer cancelMail()
		if err := h.mail.Verify(mailCtx); err != nil {
			log.Warn().Err(err).Msg("Mail transport health check failed")
			resp.Mail = ComponentDown
			if resp.Status == StatusOK {
				resp.Status = StatusDegraded
			}
		} else {
			resp.Mail = ComponentUp
		}
	}

	utils.JSON(w, status, resp)
}

// NotFound answers requests for unknown routes
func (h *GenericHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	utils.NotFound(w, constants.MsgRouteNotFound)
}

// MethodNotAllowed answers requests using a method the route does not serve
func (h *GenericHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.MethodNotAllowed(w)
}
