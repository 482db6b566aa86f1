package config

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/application"
	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/handlers"
	"github.com/draftea/food-ordering/order-service/infrastructure"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/order-service/sagalog/sqlite"
	"github.com/draftea/food-ordering/shared/cache"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/saga"
	"github.com/draftea/food-ordering/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository      domain.OrderRepository
	RestaurantRepository domain.RestaurantRepository
	SagaLog              sagalog.Repository

	// Use Cases
	CreateOrder             *application.CreateOrder
	TrackOrder              *application.TrackOrder
	CancelOrder             *application.CancelOrder
	ProcessPaymentResponse  *application.ProcessPaymentResponse
	ProcessApprovalResponse *application.ProcessApprovalResponse

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers
	EventRouter        *saga.EventRouter

	// Infrastructure
	Cache           *cache.RedisCache
	SNSPublisher    *sharedinfra.SNSPublisherAdapter
	OutboxRelay     *sharedinfra.OutboxRelay
	EventSubscriber *sharedinfra.SQSSubscriberAdapter

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()

	sagaLogDB *sqlite.Repository
}

func BuildDependencies(ctx context.Context, config *Config) (_ *Dependencies, err error) {
	deps := &Dependencies{}
	defer func() {
		if err != nil {
			_ = deps.Close(context.Background())
		}
	}()

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.
			WithServiceName(config.ServiceName).
			WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, shutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			// keep running without telemetry
			slog.WarnContext(ctx, "failed to initialize telemetry", "error", err)
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = shutdown
		}
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	deps.DB = db

	// Initialize repositories. Orders are saved with their events, the
	// outbox they land in depends on the storage.
	var outbox sharedinfra.OutboxStore
	switch config.Storage {
	case StorageMemory:
		memoryRepository := infrastructure.NewMemoryOrderRepository()
		deps.OrderRepository = memoryRepository
		outbox = memoryRepository
	default:
		deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
		outbox = sharedinfra.NewPostgresOutbox(db)
	}

	deps.RestaurantRepository = infrastructure.NewPostgresRestaurantRepository(db)
	if config.Redis.Addr != "" {
		deps.Cache = cache.NewRedisCache(config.Redis.Addr, config.ServiceName)
		if err := deps.Cache.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "redis unreachable, restaurant lookups will miss the cache", "addr", config.Redis.Addr, "error", err)
		}
		deps.RestaurantRepository = infrastructure.NewCachedRestaurantRepository(deps.RestaurantRepository, deps.Cache, config.Redis.RestaurantTTL)
	}

	if config.SagaLog.Path != "" {
		sagaLogDB, err := sqlite.Open(config.SagaLog.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open saga log")
		}
		deps.sagaLogDB = sagaLogDB
		deps.SagaLog = sagaLogDB
	}

	// Initialize AWS infrastructure
	awsCfg, err := sharedinfra.LoadAWSConfig(ctx, config.AWS.Region)
	if err != nil {
		return nil, err
	}

	deps.SNSPublisher = sharedinfra.NewSNSPublisherAdapter(awsCfg, config.AWS.SNSTopicArn)
	deps.OutboxRelay = sharedinfra.NewOutboxRelay(outbox, deps.SNSPublisher, config.Outbox.Interval, config.Outbox.BatchSize)

	deps.EventSubscriber = sharedinfra.NewSQSSubscriberAdapter(awsCfg, config.AWS.SQSQueueURL,
		sharedinfra.WithName(config.ServiceName),
		sharedinfra.WithWorkers(config.AWS.Workers),
		sharedinfra.WithReaders(config.AWS.Readers),
		sharedinfra.WithVisibilityTimeout(config.AWS.VisibilityTimeout),
	)

	// Initialize use cases
	domainService := domain.NewOrderDomainService()
	locks := application.NewOrderLocks()

	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, deps.RestaurantRepository, domainService, deps.SagaLog)
	deps.TrackOrder = application.NewTrackOrder(deps.OrderRepository)
	deps.CancelOrder = application.NewCancelOrder(deps.OrderRepository, domainService, deps.SagaLog, locks)
	deps.ProcessPaymentResponse = application.NewProcessPaymentResponse(
		application.NewOrderPaymentSaga(deps.OrderRepository, domainService, locks),
		deps.SagaLog,
	)
	deps.ProcessApprovalResponse = application.NewProcessApprovalResponse(
		application.NewOrderApprovalSaga(deps.OrderRepository, domainService, locks),
		deps.SagaLog,
	)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.TrackOrder, deps.CancelOrder)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.ProcessPaymentResponse, deps.ProcessApprovalResponse)

	deps.EventRouter = saga.NewEventRouter()
	deps.OrderEventHandlers.RegisterRoutes(deps.EventRouter)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close event subscriber"))
		}
	}

	if d.SNSPublisher != nil {
		if err := d.SNSPublisher.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close event publisher"))
		}
	}

	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close cache"))
		}
	}

	if d.sagaLogDB != nil {
		if err := d.sagaLogDB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close saga log"))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close database"))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return errors.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
