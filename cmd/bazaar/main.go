package main

import (
	"context"
	"log/slog"
	"os"

	"bazaar/config"
	"bazaar/internal/delivery"
	"bazaar/internal/delivery/http"
	"bazaar/internal/delivery/http/middleware"
	"bazaar/internal/delivery/http/router/handler"
	"bazaar/internal/domain/service"
	"bazaar/internal/infra/api"
	"bazaar/internal/infra/eventbus"
	logs "bazaar/internal/infra/log"
	"bazaar/internal/infra/persistence/snapshot"
	"bazaar/internal/infra/qrcode"
	"bazaar/internal/usecase"
	"bazaar/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			rehydrateStores,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		snapshot.New,
		eventbus.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			api.NewClient,
			newQRCodeService,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionStore,
			impl.NewCartStore,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewRequestIDMiddleware,
			middleware.NewLoggerMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewSessionHandler,
			handler.NewCartHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// rehydrateStores restores persisted state before any request is served:
// legacy token migration first, then snapshot rehydration, then the silent
// token verification.
func rehydrateStores(
	ctx context.Context,
	logger *slog.Logger,
	snapshots service.SnapshotStore,
	sessionStore usecase.SessionUsecase,
	cartStore usecase.CartUsecase,
) error {
	if err := snapshot.MigrateLegacySession(ctx, snapshots, logger); err != nil {
		logger.Warn("Legacy session migration failed", slog.Any("error", err))
	}
	if err := cartStore.Rehydrate(ctx); err != nil {
		return err
	}
	if err := sessionStore.Rehydrate(ctx); err != nil {
		return err
	}

	return sessionStore.CheckAuth(ctx)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
