/*
Package container provides dependency injection capabilities for the SmartEdu client.

This package implements a simple dependency injection container that wires the
backend client, the session store, the generation watchers and the HTTP
handlers together, and reduces tight coupling between components.
*/
package container

import (
	"fmt"
	"sync"
	"time"

	"github.com/Nexora-Open-Source/smartedu/api"
	"github.com/Nexora-Open-Source/smartedu/cache"
	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/handlers"
	"github.com/Nexora-Open-Source/smartedu/handlers/health"
	"github.com/Nexora-Open-Source/smartedu/session"
	"github.com/sirupsen/logrus"
)

// Settings are the values InitializeServices needs from the configuration
type Settings struct {
	APIBaseURL   string
	HTTPTimeout  time.Duration
	BackendRPS   float64
	BackendBurst int
	CacheTTL     time.Duration
	// Empty keeps the session in memory only
	SessionFile   string
	PollInterval  time.Duration
	PollAttempts  int
	PollImmediate bool
	Retention     time.Duration
}

// Container holds all service dependencies
type Container struct {
	mu         sync.RWMutex
	services   map[string]interface{}
	factories  map[string]func() (interface{}, error)
	singletons map[string]interface{}

	closeOnce sync.Once
	registry  *generation.Registry
	memCache  *cache.InMemoryCache
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		services:   make(map[string]interface{}),
		factories:  make(map[string]func() (interface{}, error)),
		singletons: make(map[string]interface{}),
	}
}

// Register registers a service instance
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterFactory registers a factory function for lazy service creation
func (c *Container) RegisterFactory(name string, factory func() (interface{}, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

// RegisterSingleton registers a singleton service
func (c *Container) RegisterSingleton(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singletons[name] = service
}

// Get retrieves a service by name
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Check if service is already registered
	if service, exists := c.services[name]; exists {
		return service, nil
	}

	// Check if it's a singleton
	if singleton, exists := c.singletons[name]; exists {
		return singleton, nil
	}

	// Check if there's a factory for this service
	if factory, exists := c.factories[name]; exists {
		service, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service %s: %v", name, err)
		}
		return service, nil
	}

	return nil, fmt.Errorf("service %s not found", name)
}

func get[T any](c *Container, name string) (T, error) {
	var zero T
	service, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("%s service is not of expected type", name)
	}
	return typed, nil
}

// GetLogger retrieves the logger service
func (c *Container) GetLogger() (*logrus.Logger, error) {
	return get[*logrus.Logger](c, "logger")
}

// GetCacheManager retrieves the cache manager service
func (c *Container) GetCacheManager() (*cache.CacheManager, error) {
	return get[*cache.CacheManager](c, "cache")
}

// GetSession retrieves the session store
func (c *Container) GetSession() (session.Accessor, error) {
	return get[session.Accessor](c, "session")
}

// GetClient retrieves the SmartEdu backend client
func (c *Container) GetClient() (*api.Client, error) {
	return get[*api.Client](c, "client")
}

// GetTrigger retrieves the generation trigger
func (c *Container) GetTrigger() (*generation.Trigger, error) {
	return get[*generation.Trigger](c, "trigger")
}

// GetRegistry retrieves the watcher registry
func (c *Container) GetRegistry() (*generation.Registry, error) {
	return get[*generation.Registry](c, "registry")
}

// GetHandler retrieves the handler service
func (c *Container) GetHandler() (*handlers.Handler, error) {
	return get[*handlers.Handler](c, "handler")
}

// GetHealthHandler retrieves the health handler service
func (c *Container) GetHealthHandler() (*health.Handler, error) {
	return get[*health.Handler](c, "health")
}

// InitializeServices initializes all core services with proper dependencies
func (c *Container) InitializeServices(settings Settings, logger *logrus.Logger) error {
	if settings.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}

	memCache := cache.NewInMemoryCache(settings.CacheTTL)
	cacheManager := cache.NewCacheManager(memCache, logger, settings.CacheTTL)

	var store session.Accessor = session.NewMemoryStore()
	if settings.SessionFile != "" {
		store = session.NewFileStore(settings.SessionFile)
	}

	client := api.NewClient(api.Config{
		BaseURL: settings.APIBaseURL,
		Timeout: settings.HTTPTimeout,
		RPS:     settings.BackendRPS,
		Burst:   settings.BackendBurst,
	}, store, cacheManager, logger)

	fetchers := make(map[generation.Kind]generation.Fetcher, len(generation.Kinds))
	for _, kind := range generation.Kinds {
		fetchers[kind] = generation.NewEntityFetcher(client, kind, logger)
	}

	opts := generation.DefaultOptions()
	if settings.PollInterval > 0 {
		opts.Interval = settings.PollInterval
	}
	if settings.PollAttempts > 0 {
		opts.MaxAttempts = settings.PollAttempts
	}
	opts.Immediate = settings.PollImmediate

	registry := generation.NewRegistry(fetchers, opts, settings.Retention, logger)
	trigger := generation.NewTrigger(client, logger)

	// Register core services
	c.RegisterSingleton("logger", logger)
	c.RegisterSingleton("cache", cacheManager)
	c.RegisterSingleton("session", store)
	c.RegisterSingleton("client", client)
	c.RegisterSingleton("trigger", trigger)
	c.RegisterSingleton("registry", registry)

	c.mu.Lock()
	c.registry = registry
	c.memCache = memCache
	c.mu.Unlock()

	// Register handler factories that depend on other services
	c.RegisterFactory("handler", func() (interface{}, error) {
		return handlers.NewHandler(trigger, registry, client, client, logger), nil
	})
	c.RegisterFactory("health", func() (interface{}, error) {
		return health.NewHandler(client, registry.Active, logger), nil
	})

	return nil
}

// Close stops every watcher and releases the cache
func (c *Container) Close() error {
	c.mu.RLock()
	registry, memCache := c.registry, c.memCache
	c.mu.RUnlock()

	c.closeOnce.Do(func() {
		if registry != nil {
			registry.Shutdown()
		}
		if memCache != nil {
			memCache.Close()
		}
	})
	return nil
}
