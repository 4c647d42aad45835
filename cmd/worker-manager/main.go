// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"mintslip-workers/internal/api"
	"mintslip-workers/internal/common/auth"
	"mintslip-workers/internal/common/aws"
	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/common/database"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/preview"
	"mintslip-workers/internal/pricing"
	"mintslip-workers/internal/render"
	"mintslip-workers/internal/repository"

	// Form Workers (2)
	st "mintslip-workers/internal/workers/forms/select-template"
	vfd "mintslip-workers/internal/workers/forms/validate-form-data"

	// Pricing & Subscription Workers (3)
	cp "mintslip-workers/internal/workers/pricing/calculate-pricing"
	cd "mintslip-workers/internal/workers/subscription/consume-download"
	vs "mintslip-workers/internal/workers/subscription/validate-subscription"

	// Payment Workers (2)
	cc "mintslip-workers/internal/workers/payments/create-checkout"
	vp "mintslip-workers/internal/workers/payments/verify-payment"

	// Document Workers (4)
	gp "mintslip-workers/internal/workers/documents/generate-pdf"
	qd "mintslip-workers/internal/workers/documents/query-documents"
	rd "mintslip-workers/internal/workers/documents/render-document"
	sd "mintslip-workers/internal/workers/documents/save-document"

	// Notification Workers (1)
	sn "mintslip-workers/internal/workers/notifications/send-notification"

	// Authentication Workers (4)
	ali "mintslip-workers/internal/workers/auth/auth-login"
	alo "mintslip-workers/internal/workers/auth/auth-logout"
	asu "mintslip-workers/internal/workers/auth/auth-signup"
	ru "mintslip-workers/internal/workers/auth/refresh-user"

	// Resume Assistant Workers (3)
	gr "mintslip-workers/internal/workers/resume/generate-responsibilities"
	pr "mintslip-workers/internal/workers/resume/parse-resume"
	sj "mintslip-workers/internal/workers/resume/scrape-job"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.FromConfig(cfg.Logging)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obsOpts := []observability.Option{observability.WithSampleRatio(cfg.Tracing.SampleRatio)}
	if cfg.Tracing.OTLPEndpoint != "" {
		exporter, err := observability.NewOTLPExporter(context.Background(), cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
		if err != nil {
			zapLog.Warn("OTLP trace exporter unavailable, spans stay local", zap.Error(err))
		} else {
			obsOpts = append(obsOpts, observability.WithSpanExporter(exporter))
		}
	}
	obs := observability.New(cfg.App.Name, obsOpts...)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			MessageTTL:             config.GetDuration(cfg.Camunda.MessageTTL),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := esClient.EnsureIndex(ctx, cfg.Search.DocumentsIndex, repository.DocumentsMapping); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain services ---
	backendClient := backend.NewClient(cfg.Backend, log)

	sessions := auth.NewSessionStore(redis.Client)
	tokens := auth.NewTokenIssuer(cfg.Server.JWTSecret, time.Duration(cfg.Server.TokenTTL)*time.Minute)
	authService := auth.NewService(backendClient, sessions, tokens, log)

	paymentRepo := repository.NewPaymentRepository(pg.DB)
	documentRepo := repository.NewDocumentRepository(pg.DB, esClient, cfg.Search.DocumentsIndex)
	couponRepo := repository.NewCouponRepository(pg.DB, redis.Client, time.Duration(cfg.Pricing.CouponCacheTTL)*time.Second)

	gateways := []payments.Gateway{payments.NewStripeGateway(cfg.Payments.Stripe, backendClient)}
	if cfg.Payments.PayPal.ClientID != "" {
		paypalGateway, err := payments.NewPayPalGateway(cfg.Payments.PayPal)
		if err != nil {
			zapLog.Fatal("paypal client failed", zap.Error(err))
		}
		gateways = append(gateways, paypalGateway)
	} else {
		zapLog.Warn("PayPal credentials missing, PayPal checkout disabled")
	}
	idempotency := payments.NewIdempotencyStore(redis.Client, time.Duration(cfg.Payments.IdempotencyTTL)*time.Minute)
	paymentService := payments.NewService(idempotency, paymentRepo, log, gateways...)

	calculator := pricing.NewCalculator(pricing.NewCatalog(cfg.Pricing.Prices), couponRepo, cfg.Payments.Currency)

	renderer, err := render.NewRenderer()
	if err != nil {
		zapLog.Fatal("template parsing failed", zap.Error(err))
	}
	forms := documents.NewFormSessionStore(redis.Client, time.Duration(cfg.Documents.FormSessionTTL)*time.Minute)
	previews := preview.NewService(forms, renderer,
		config.GetDuration(cfg.Documents.PreviewDebounce),
		cfg.Documents.WatermarkText,
		cfg.Documents.PreviewScale,
		log,
	)
	defer previews.Close()

	// interfaces stay nil when a channel is off so the worker skips it
	var emailSender sn.EmailSender
	var smsSender sn.SMSSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		emailSender = sesClient
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsSender = snsClient
	}

	zapLog.Info("All domain services initialized")

	// --- START: Register ALL 19 Workers ---
	zbc := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.StartWorker(zbc, taskType, config.GetWorkerConfig(cfg, taskType), handler, log))
	}

	// --- 1. Form Workers (2) ---
	start(vfd.TaskType, vfd.NewHandler(vfd.LoadConfig(cfg), log, obs))
	start(st.TaskType, st.NewHandler(st.LoadConfig(cfg), log, obs))

	// --- 2. Pricing & Subscription Workers (3) ---
	start(cp.TaskType, cp.NewHandler(cp.LoadConfig(cfg), calculator, log, obs))
	start(vs.TaskType, vs.NewHandler(vs.LoadConfig(cfg), backendClient, redis.Client, log, obs))
	start(cd.TaskType, cd.NewHandler(cd.LoadConfig(cfg), backendClient, idempotency, redis.Client, log, obs))

	// --- 3. Payment Workers (2) ---
	start(cc.TaskType, cc.NewHandler(cc.LoadConfig(cfg), paymentService, log, obs))
	start(vp.TaskType, vp.NewHandler(vp.LoadConfig(cfg), paymentService, log, obs))

	// --- 4. Document Workers (4) ---
	start(rd.TaskType, rd.NewHandler(rd.LoadConfig(cfg), renderer, log, obs))
	start(gp.TaskType, gp.NewHandler(gp.LoadConfig(cfg), renderer, documentRepo, forms, log, obs))
	start(sd.TaskType, sd.NewHandler(sd.LoadConfig(cfg), backendClient, log, obs))
	start(qd.TaskType, qd.NewHandler(qd.LoadConfig(cfg), documentRepo, log, obs))

	// --- 5. Notification Workers (1) ---
	start(sn.TaskType, sn.NewHandler(sn.LoadConfig(cfg), emailSender, smsSender, log, obs))

	// --- 6. Authentication Workers (4) ---
	start(ali.TaskType, ali.NewHandler(ali.LoadConfig(cfg), authService, log, obs))
	start(asu.TaskType, asu.NewHandler(asu.LoadConfig(cfg), authService, log, obs))
	start(alo.TaskType, alo.NewHandler(alo.LoadConfig(cfg), authService, log, obs))
	start(ru.TaskType, ru.NewHandler(ru.LoadConfig(cfg), authService, log, obs))

	// --- 7. Resume Assistant Workers (3) ---
	start(gr.TaskType, gr.NewHandler(gr.LoadConfig(cfg), backendClient, log, obs))
	start(sj.TaskType, sj.NewHandler(sj.LoadConfig(cfg), backendClient, log, obs))
	start(pr.TaskType, pr.NewHandler(pr.LoadConfig(cfg), backendClient, log, obs))

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP API (health, metrics, forms, previews, webhooks) ---
	server := api.NewServer(cfg, api.Deps{
		Auth:        authService,
		Forms:       forms,
		Preview:     previews,
		Payments:    paymentRepo,
		Documents:   documentRepo,
		Engine:      zeebe,
		Submissions: idempotency,
		Checks: map[string]api.Checker{
			"postgres": pg.Ping,
			"redis":    redis.Ping,
			"elasticsearch": func(context.Context) error {
				return esClient.Ping()
			},
			"zeebe": zeebe.HealthCheck,
		},
	}, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx)
	}()

	// --- Graceful Shutdown ---
	var apiErr error
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping workers...")
		apiErr = <-serverErr
	case apiErr = <-serverErr:
		zapLog.Error("HTTP API stopped, stopping workers...", zap.Error(apiErr))
		stop()
	}

	for _, w := range workers {
		w.Close()
	}
	for _, w := range workers {
		w.AwaitClose()
	}

	if apiErr != nil {
		zapLog.Warn("HTTP API shutdown error", zap.Error(apiErr))
	}
	zapLog.Info("Worker manager stopped")
}
