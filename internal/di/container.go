package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/dulceria/api/internal/platform/auth"
	"github.com/dulceria/api/internal/platform/config"
	"github.com/dulceria/api/internal/platform/events"
	"github.com/dulceria/api/internal/platform/locks"
	"github.com/dulceria/api/internal/repositories"
	"github.com/dulceria/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders    services.OrderService
	LineItems services.LineItemService
	Statuses  services.StatusService
	Catalog   services.CatalogService
	Users     services.UserService
	Bundles   services.BundleService
	System    services.SystemService
	Totals    services.TotalsEngine
}

// Container wires repositories, services, and transport infrastructure for runtime use.
type Container struct {
	Config        config.Config
	Repositories  repositories.Registry
	Services      Services
	Sessions      *auth.SessionManager
	Authenticator *auth.Authenticator

	pubsubClient *pubsub.Client
}

// ContainerOption customises container construction.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	logger *zap.Logger
	build  services.BuildInfo
	clock  func() time.Time
}

// WithLogger supplies the zap logger used for service-level structured events.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithBuildInfo records build metadata surfaced by the system service.
func WithBuildInfo(build services.BuildInfo) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.build = build
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) ContainerOption {
	return func(cfg *containerConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides the Firestore
// registry; tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	cc := containerConfig{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&cc)
	}

	container := &Container{
		Config:       cfg,
		Repositories: reg,
	}

	if err := container.buildServices(ctx, cc); err != nil {
		return nil, err
	}
	return container, nil
}

// Close releases resources such as repository clients and the event publisher.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pubsub client: %w", err))
		}
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close repositories: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) buildServices(ctx context.Context, cc containerConfig) error {
	reg := c.Repositories
	cfg := c.Config
	logger := serviceLogger(cc.logger)
	sharedLocks := &locks.KeyedMutex{}

	totals, err := services.NewTotalsEngine(services.TotalsEngineDeps{
		Orders:    reg.Orders(),
		LineItems: reg.LineItems(),
		Catalog:   reg.Catalog(),
		Clock:     cc.clock,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build totals engine: %w", err)
	}
	c.Services.Totals = totals

	var publisher services.OrderEventPublisher
	if cfg.Features.EnableOrderEvents && cfg.PubSub.ProjectID != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("build pubsub client: %w", err)
		}
		pub, err := events.NewPubSubOrderPublisher(client.Topic(cfg.PubSub.OrdersTopic),
			events.WithStaticAttributes(map[string]string{
				"source":      "dulceria-api",
				"environment": cc.build.Environment,
			}),
		)
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("build order event publisher: %w", err)
		}
		c.pubsubClient = client
		publisher = &orderEventPublisher{publisher: pub}
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:        reg.Orders(),
		LineItems:     reg.LineItems(),
		StatusRecords: reg.StatusRecords(),
		Statuses:      reg.Statuses(),
		Catalog:       reg.Catalog(),
		Users:         reg.Users(),
		Totals:        totals,
		UnitOfWork:    reg,
		Locks:         sharedLocks,
		Clock:         cc.clock,
		Events:        publisher,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build order service: %w", err)
	}
	c.Services.Orders = orderSvc

	lineItemSvc, err := services.NewLineItemService(services.LineItemServiceDeps{
		Orders:        reg.Orders(),
		LineItems:     reg.LineItems(),
		StatusRecords: reg.StatusRecords(),
		Statuses:      reg.Statuses(),
		Catalog:       reg.Catalog(),
		Totals:        totals,
		Locks:         sharedLocks,
		Clock:         cc.clock,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build line item service: %w", err)
	}
	c.Services.LineItems = lineItemSvc

	statusSvc, err := services.NewStatusService(services.StatusServiceDeps{
		Orders:        reg.Orders(),
		LineItems:     reg.LineItems(),
		StatusRecords: reg.StatusRecords(),
		Statuses:      reg.Statuses(),
		Totals:        totals,
		Locks:         sharedLocks,
		Clock:         cc.clock,
		Events:        publisher,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build status service: %w", err)
	}
	c.Services.Statuses = statusSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: reg.Catalog(),
		Clock:   cc.clock,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build catalog service: %w", err)
	}
	c.Services.Catalog = catalogSvc

	bundleSvc, err := services.NewBundleService(services.BundleServiceDeps{
		BundleItems: reg.BundleItems(),
		Catalog:     reg.Catalog(),
		Clock:       cc.clock,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build bundle service: %w", err)
	}
	c.Services.Bundles = bundleSvc

	systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: reg.Health(),
		Clock:            cc.clock,
		Build:            cc.build,
	})
	if err != nil {
		return fmt.Errorf("build system service: %w", err)
	}
	c.Services.System = systemSvc

	if cfg.Auth.SessionSecret != "" {
		sessions, err := auth.NewSessionManager(auth.SessionManagerDeps{
			Secret: cfg.Auth.SessionSecret,
			Issuer: cfg.Auth.SessionIssuer,
			TTL:    cfg.Auth.SessionTTL,
			Clock:  cc.clock,
		})
		if err != nil {
			return fmt.Errorf("build session manager: %w", err)
		}
		c.Sessions = sessions
	}

	if cfg.Firebase.ProjectID != "" && c.Sessions != nil {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
		if err != nil {
			return fmt.Errorf("build firebase verifier: %w", err)
		}

		userSvc, err := services.NewUserService(services.UserServiceDeps{
			Users:    reg.Users(),
			Accounts: &firebaseAccountProvider{verifier: verifier},
			Sessions: c.Sessions,
			Clock:    cc.clock,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("build user service: %w", err)
		}
		c.Services.Users = userSvc

		c.Authenticator = auth.NewAuthenticator(
			verifier,
			auth.WithSessionManager(c.Sessions),
			auth.WithProfileResolver(profileResolver(userSvc)),
		)
	}

	return nil
}

// firebaseAccountProvider adapts the Firebase Admin SDK to the account
// provider contract the user service consumes.
type firebaseAccountProvider struct {
	verifier *auth.FirebaseVerifier
}

func (p *firebaseAccountProvider) CreateUser(ctx context.Context, email, password string) (services.AccountRecord, error) {
	record, err := p.verifier.CreateUser(ctx, email, password)
	if err != nil {
		if firebaseauth.IsEmailAlreadyExists(err) {
			return services.AccountRecord{}, services.ErrAccountAlreadyExists
		}
		return services.AccountRecord{}, err
	}
	return services.AccountRecord{UID: record.UID, Email: record.Email}, nil
}

func (p *firebaseAccountProvider) VerifyIDToken(ctx context.Context, idToken string) (services.IdentityToken, error) {
	token, err := p.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return services.IdentityToken{}, err
	}
	email, _ := token.Claims["email"].(string)
	return services.IdentityToken{UID: token.UID, Email: email}, nil
}

// orderEventPublisher adapts the Pub/Sub publisher to the service-level
// contract; the message id is dropped because callers treat publishing as
// fire-and-forget.
type orderEventPublisher struct {
	publisher *events.PubSubOrderPublisher
}

func (p *orderEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	_, err := p.publisher.PublishOrderEvent(ctx, events.OrderEvent{
		Event:      event.Type,
		OrderID:    event.OrderID,
		UserID:     event.UserID,
		StatusID:   event.StatusID,
		Status:     event.Status,
		Subtotal:   event.Subtotal,
		Total:      event.Total,
		OccurredAt: event.OccurredAt,
		Metadata:   event.Metadata,
	})
	return err
}

func profileResolver(users services.UserService) auth.ProfileResolver {
	return func(ctx context.Context, firebaseUID string, email string) (auth.Identity, error) {
		profile, err := users.ResolveIdentity(ctx, firebaseUID, email)
		if err != nil {
			return auth.Identity{}, err
		}
		return auth.Identity{
			UserID: profile.ID,
			Email:  profile.Email,
			Admin:  profile.Admin,
			Active: profile.Active,
		}, nil
	}
}

func serviceLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
