// Package api is the HTTP surface of the document service.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/preview"
	"mintslip-workers/internal/repository"
)

type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error)
	Logout(ctx context.Context, token string) (bool, error)
	Authenticate(ctx context.Context, token string) (*models.Session, string, error)
	RefreshUser(ctx context.Context, token string) (*models.User, error)
}

type FormStore interface {
	Create(ctx context.Context, userID, docType, templateID string) (*models.FormSession, error)
	Get(ctx context.Context, id, userID string) (*models.FormSession, error)
	Save(ctx context.Context, fs *models.FormSession) error
	Update(ctx context.Context, id, userID string, updates map[string]string) (*models.FormSession, error)
	Delete(ctx context.Context, id string) error
}

type Previewer interface {
	Render(ctx context.Context, sessionID, userID string, scale float64) (*preview.Result, error)
	Schedule(sessionID, connID, userID string, scale float64, deliver func(*preview.Result, error))
	Cancel(sessionID, connID string)
	CancelSession(sessionID string)
}

type PaymentStore interface {
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus) error
}

type DocumentStore interface {
	Get(ctx context.Context, id, userID string) (*models.GeneratedDocument, error)
	Search(ctx context.Context, q repository.DocumentQuery) (*repository.DocumentPage, error)
}

type ProcessEngine interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (*camunda.ProcessInstance, error)
	PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error
}

// Ledger records the result of a keyed request so a repeat gets it back.
type Ledger interface {
	Reserve(ctx context.Context, key string, out interface{}) (bool, error)
	Complete(ctx context.Context, key string, result interface{}) error
	Release(ctx context.Context, key string) error
}

// Checker reports whether a dependency is ready to serve.
type Checker func(ctx context.Context) error

type Deps struct {
	Auth        Authenticator
	Forms       FormStore
	Preview     Previewer
	Payments    PaymentStore
	Documents   DocumentStore
	Engine      ProcessEngine
	Submissions Ledger
	Checks      map[string]Checker
}

type Server struct {
	cfg    *config.Config
	deps   Deps
	log    logger.Logger
	engine *gin.Engine
}

func NewServer(cfg *config.Config, deps Deps, log logger.Logger) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log), CORS(s.cfg.Server.AllowedOrigins))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook/stripe", s.stripeWebhook)

	limiter := NewRateLimiter(s.cfg.Server.RateLimit.RequestsPerSecond, s.cfg.Server.RateLimit.Burst)
	api := r.Group("/api", limiter.Middleware())

	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/logout", s.logout)
	authGroup.GET("/me", RequireAuth(s.deps.Auth), s.me)

	protected := api.Group("", RequireAuth(s.deps.Auth))

	forms := protected.Group("/forms")
	forms.POST("", s.createForm)
	forms.GET("/:id", s.getForm)
	forms.PATCH("/:id", s.updateForm)
	forms.DELETE("/:id", s.deleteForm)
	forms.POST("/:id/next", s.nextStep)
	forms.POST("/:id/back", s.previousStep)
	forms.POST("/:id/preview", s.renderPreview)
	forms.GET("/:id/preview/ws", s.previewSocket)
	forms.POST("/:id/logo", s.uploadLogo)
	forms.POST("/:id/submit", s.submitForm)

	protected.GET("/checkout-status/:id", s.checkoutStatus)
	protected.POST("/paypal/approve", s.paypalApprove)
	protected.GET("/documents", s.listDocuments)
	protected.GET("/documents/:id/download", s.downloadDocument)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.cfg.App.Version})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": checks})
}
