package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/router/handler"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/scheduler"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/auth"
	logs "github.com/brunoeugeniodev/NaLojaTem/internal/infra/log"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/metrics"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/pubsub"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/qrcode"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/revocation"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/storage"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		persistence.New,
		metrics.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			revocation.New,
			qrcode.NewQRCodeService,
			storage.NewPhotoStorage,
			pubsub.NewEventPublisher,
			metrics.NewRecorder,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewUserService,
			impl.NewStoreService,
			impl.NewProductService,
			impl.NewCartService,
			impl.NewAddressService,
			impl.NewSearchService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewStoreHandler,
			handler.NewProductHandler,
			handler.NewCartHandler,
			handler.NewAddressHandler,
			handler.NewSearchHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				scheduler.New,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
