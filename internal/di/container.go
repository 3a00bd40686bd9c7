// Package di wires the application together: configuration, logging,
// storage clients, repositories, services and the HTTP surface. Wiring is
// manual and ordered; each phase depends only on the ones before it.
package di

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"kinship-backend/internal/config"
	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/member"
	"kinship-backend/internal/domain/shared"
	dynamostore "kinship-backend/internal/infrastructure/dynamodb"
	"kinship-backend/internal/infrastructure/messaging"
	"kinship-backend/internal/infrastructure/observability"
	supastore "kinship-backend/internal/infrastructure/supabase"
	rest "kinship-backend/internal/interfaces/http"
	"kinship-backend/internal/interfaces/websocket"
	"kinship-backend/internal/repository/memory"
	"kinship-backend/internal/service/activities"
	"kinship-backend/internal/service/connections"
	"kinship-backend/internal/service/graph"
	"kinship-backend/internal/service/suggest"
	"kinship-backend/internal/service/trust"
)

// Container holds every wired component. Lifetime is the process lifetime;
// Shutdown tears the pieces down in reverse wiring order.
type Container struct {
	Config  *config.Config
	Watcher *config.Watcher
	Logger  *zap.Logger

	ConnectionRepo connection.Repository
	ActivityRepo   activity.Repository
	Profiles       member.Reader

	Bus shared.EventBus
	Hub *websocket.Hub

	ConnectionService connections.Service
	ActivityService   activities.Service
	Mutuals           *graph.Calculator
	Suggestions       *suggest.Generator
	Trust             *trust.Aggregator

	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Router   *chi.Mux

	eventBridge   *messaging.EventBridgePublisher
	shutdownFuncs []func() error
}

// NewContainer wires the full production stack: DynamoDB ledger, Supabase
// profiles, EventBridge fan-out and the WebSocket hub.
func NewContainer(ctx context.Context) (*Container, error) {
	c := &Container{}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	c.Config = cfg

	if err := c.initializeLogger(); err != nil {
		return nil, err
	}
	if err := c.initializeStorage(ctx); err != nil {
		return nil, err
	}
	c.initializeEventing()
	c.initializeServices()
	c.initializeHTTP()

	if cfg.Features.EnableHotReload {
		if err := c.initializeWatcher(); err != nil {
			c.Logger.Warn("config hot reload unavailable", zap.Error(err))
		}
	}

	c.Logger.Info("container initialized",
		zap.String("environment", string(cfg.Environment)),
		zap.String("table", cfg.AWS.TableName))

	return c, nil
}

// NewTestContainer wires the in-memory stack used by local development and
// integration tests: no AWS, no Supabase, in-process bus only.
func NewTestContainer(profiles *memory.ProfileStore) (*Container, error) {
	c := &Container{Config: config.DefaultConfig()}
	c.Logger = zap.NewNop()

	c.ConnectionRepo = memory.NewConnectionStore()
	c.ActivityRepo = memory.NewActivityStore()
	if profiles == nil {
		profiles = memory.NewProfileStore()
	}
	c.Profiles = profiles

	c.initializeEventing()
	c.initializeServices()
	c.initializeHTTP()

	return c, nil
}

func (c *Container) initializeLogger() error {
	var logger *zap.Logger
	var err error
	if c.Config.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.Logger = logger
	c.addShutdown(func() error {
		c.Logger.Sync()
		return nil
	})
	return nil
}

func (c *Container) initializeStorage(ctx context.Context) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Config.AWS.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg)
	c.ConnectionRepo = dynamostore.NewConnectionRepository(dynamoClient, c.Config.AWS.TableName, c.Config.AWS.MemberIndex)
	c.ActivityRepo = dynamostore.NewActivityRepository(dynamoClient, c.Config.AWS.TableName)

	eventBridgeClient := awseventbridge.NewFromConfig(awsCfg)
	c.eventBridge = messaging.NewEventBridgePublisher(
		eventBridgeClient, c.Config.AWS.EventBusName, c.Config.AWS.EventSource, c.Logger)

	supaClient, err := supa.NewClient(c.Config.Supabase.URL, c.Config.Supabase.AnonKey, nil)
	if err != nil {
		return fmt.Errorf("failed to create supabase client: %w", err)
	}
	c.Profiles = supastore.NewProfileReader(supaClient, c.Config.Supabase.MembersTable, c.Logger)

	return nil
}

// initializeEventing builds the notification pipeline. Ledger mutations go
// to the in-process bus (which feeds the WebSocket hub) and, when wired, to
// EventBridge for the rest of the platform.
func (c *Container) initializeEventing() {
	c.Metrics = observability.NewMetrics(c.registry())

	retry := shared.DefaultRetryConfig()
	if c.Config.Events.RetryInitial > 0 {
		retry.InitialDelay = c.Config.Events.RetryInitial
	}
	if c.Config.Events.RetryMax > 0 {
		retry.MaxDelay = c.Config.Events.RetryMax
	}
	inProcess := shared.NewInProcessEventBusWithRetry(c.Logger, retry)

	c.Hub = websocket.NewHub(c.Logger, c.Metrics)
	inProcess.Subscribe("*", c.Hub.HandleConnectionEvent)
	c.addShutdown(func() error {
		c.Hub.Stop()
		return nil
	})

	if c.eventBridge != nil {
		c.Bus = newFanoutBus(inProcess, c.eventBridge)
	} else {
		c.Bus = inProcess
	}
}

func (c *Container) initializeServices() {
	c.ConnectionService = connections.NewService(c.ConnectionRepo, c.Bus, c.Logger)
	c.ActivityService = activities.NewService(c.ActivityRepo, c.Logger)
	c.Mutuals = graph.NewCalculator(c.ConnectionRepo)
	c.Suggestions = suggest.NewGenerator(c.Profiles, c.ConnectionRepo, c.Mutuals, c.suggestWeights)
	c.Trust = trust.NewAggregator(c.ConnectionRepo, c.ActivityRepo, c.trustWeights)
}

func (c *Container) initializeHTTP() {
	handler := rest.NewHandler(
		c.ConnectionService, c.Suggestions, c.Trust, c.ActivityService,
		c.Metrics, c.Logger, string(c.Config.Environment))

	c.Router = rest.NewRouter(handler, c.Config, c.Metrics, c.Logger, rest.RouterOptions{
		Hub:      c.Hub,
		Registry: c.Registry,
	})
}

func (c *Container) initializeWatcher() error {
	loader := config.NewLoader(os.Getenv("CONFIG_PATH"), c.Config.Environment)
	watcher, err := config.NewWatcher(c.Config, loader, c.Logger)
	if err != nil {
		return err
	}
	c.Watcher = watcher
	c.addShutdown(func() error {
		watcher.Stop()
		return nil
	})
	return nil
}

// suggestWeights reads through the watcher when hot reload is on, so ranking
// retunes without a restart.
func (c *Container) suggestWeights() config.SuggestWeights {
	if c.Watcher != nil {
		return c.Watcher.Current().Suggest
	}
	return c.Config.Suggest
}

func (c *Container) trustWeights() config.TrustWeights {
	if c.Watcher != nil {
		return c.Watcher.Current().Trust
	}
	return c.Config.Trust
}

func (c *Container) registry() *prometheus.Registry {
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	return c.Registry
}

func (c *Container) addShutdown(fn func() error) {
	c.shutdownFuncs = append(c.shutdownFuncs, fn)
}

// Shutdown releases resources in reverse wiring order.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	for i := len(c.shutdownFuncs) - 1; i >= 0; i-- {
		done := make(chan error, 1)
		go func(fn func() error) { done <- fn() }(c.shutdownFuncs[i])

		select {
		case err := <-done:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown function timed out")
			}
		}
	}
	return firstErr
}
