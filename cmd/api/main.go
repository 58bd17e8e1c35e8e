package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/minashop/api/internal/handlers"
	"github.com/minashop/api/internal/payments"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/config"
	"github.com/minashop/api/internal/platform/events"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
	"github.com/minashop/api/internal/platform/observability"
	"github.com/minashop/api/internal/platform/secrets"
	platformstorage "github.com/minashop/api/internal/platform/storage"
	firestoreRepo "github.com/minashop/api/internal/repositories/firestore"
	"github.com/minashop/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("api")

	if err := run(ctx, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	var resolver config.SecretResolver
	if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
		fetcher, err := secrets.NewFetcher(ctx, projectID, logger)
		if err != nil {
			return fmt.Errorf("initialise secret fetcher: %w", err)
		}
		defer func() {
			if err := fetcher.Close(); err != nil {
				logger.Warn("secret fetcher close error", zap.Error(err))
			}
		}()
		resolver = fetcher.Fetch
	}

	cfg, err := config.Load(ctx,
		config.WithEnvFile(".env"),
		config.WithSecretResolver(resolver),
	)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	firestoreProvider, err := pfirestore.NewProvider(pfirestore.Config{
		ProjectID:       cfg.Firestore.ProjectID,
		DatabaseID:      cfg.Firestore.DatabaseID,
		CredentialsFile: cfg.Firestore.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("initialise firestore provider: %w", err)
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var orderPublisher services.OrderEventPublisher
	if cfg.PubSub.OrderTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("initialise pubsub client: %w", err)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := events.NewPubSubOrderPublisher(pubsubClient.Topic(cfg.PubSub.OrderTopic))
		if err != nil {
			return fmt.Errorf("initialise order publisher: %w", err)
		}
		orderPublisher = publisher
	} else {
		logger.Info("order event publishing disabled: no topic configured")
	}

	var imageSigner services.ImageSigner
	if cfg.Storage.Bucket != "" {
		storageClient, err := cloudstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("initialise storage client: %w", err)
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		signer, err := platformstorage.NewURLSigner(storageClient, platformstorage.SignerConfig{
			Bucket:     cfg.Storage.Bucket,
			Email:      cfg.Storage.SignerEmail,
			PrivateKey: cfg.Storage.SignerPrivateKey,
			TTL:        cfg.Storage.SignedURLTTL,
		})
		if err != nil {
			return fmt.Errorf("initialise url signer: %w", err)
		}
		imageSigner = signer
	} else {
		logger.Info("signed image urls disabled: no bucket configured")
	}

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		return err
	}
	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider)
	if err != nil {
		return err
	}
	couponRepo, err := firestoreRepo.NewCouponRepository(firestoreProvider)
	if err != nil {
		return err
	}
	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		return err
	}
	cartRepo, err := firestoreRepo.NewCartRepository(firestoreProvider)
	if err != nil {
		return err
	}
	reviewRepo, err := firestoreRepo.NewReviewRepository(firestoreProvider)
	if err != nil {
		return err
	}
	contentRepo, err := firestoreRepo.NewContentRepository(firestoreProvider)
	if err != nil {
		return err
	}
	userRepo, err := firestoreRepo.NewUserRepository(firestoreProvider)
	if err != nil {
		return err
	}

	counterService, err := services.NewCounterService(services.CounterServiceDeps{Counters: counterRepo})
	if err != nil {
		return err
	}
	couponService, err := services.NewCouponService(services.CouponServiceDeps{
		Coupons: couponRepo,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:   orderRepo,
		Counters: counterService,
		Coupons:  couponService,
		Events:   orderPublisher,
		Shipping: cfg.Shipping,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	gatewayManager, err := payments.NewManagerFromConfig(cfg.Gateways)
	if err != nil {
		return fmt.Errorf("initialise payment gateways: %w", err)
	}
	if gatewayManager == nil {
		logger.Info("online payments disabled: no gateways configured")
	}
	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Orders:  orderService,
		Manager: gatewayManager,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{Products: productRepo})
	if err != nil {
		return err
	}
	cartService, err := services.NewCartService(services.CartServiceDeps{
		Carts:   cartRepo,
		Catalog: catalogService,
	})
	if err != nil {
		return err
	}
	reviewService, err := services.NewReviewService(services.ReviewServiceDeps{
		Reviews: reviewRepo,
		Catalog: catalogService,
	})
	if err != nil {
		return err
	}
	contentService, err := services.NewContentService(services.ContentServiceDeps{
		Content: contentRepo,
		Signer:  imageSigner,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	userService, err := services.NewUserService(services.UserServiceDeps{Users: userRepo})
	if err != nil {
		return err
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		return fmt.Errorf("initialise firebase verifier: %w", err)
	}
	authenticator := auth.NewAuthenticator(verifier)

	publicHandlers := handlers.NewPublicHandlers(catalogService, reviewService, couponService, contentService)
	profileHandlers := handlers.NewProfileHandlers(authenticator, userService)
	cartHandlers := handlers.NewCartHandlers(authenticator, cartService)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService, paymentService, cartService)
	reviewHandlers := handlers.NewReviewHandlers(authenticator, reviewService)
	paymentHandlers := handlers.NewPaymentHandlers(paymentService)
	adminHandlers := handlers.NewAdminHandlers(handlers.AdminHandlerDeps{
		Authn:   authenticator,
		Orders:  orderService,
		Catalog: catalogService,
		Coupons: couponService,
		Reviews: reviewService,
		Content: contentService,
	})

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.ProjectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(firestoreProvider)),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithMeRoutes(profileHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithReviewRoutes(reviewHandlers.Routes),
		handlers.WithPaymentRoutes(paymentHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("env", cfg.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
	}

	logger.Info("shutdown signal received")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(timeoutCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
