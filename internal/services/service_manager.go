package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/generator"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/storage"
	"github.com/inedit/inedit-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	LogLevel slog.Level

	// Service-specific configurations
	Stats      ServiceConfig
	Generation ServiceConfig
	Source     ServiceConfig

	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled      bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Dependencies are the collaborators shared by every service
type Dependencies struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Cache     *cache.CacheManager
	Policy    credits.Policy
	Location  *time.Location
	Generator generator.Generator
	BlobStore storage.BlobStore
	Events    events.EventPublisher
	Clock     Clock
}

// withDefaults fills optional collaborators
func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Cache == nil {
		d.Cache = cache.NewCacheManager(nil)
	}
	if d.Policy == nil {
		d.Policy = credits.LifetimePolicy{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Events == nil {
		d.Events = events.NewInProcessEventPublisher("inedit.events", d.Logger)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	logger *slog.Logger
	config ServiceManagerConfig

	// Service instances
	accountService    AccountService
	bancaService      BancaService
	sourceService     SourceService
	generationService GenerationService
	questionService   QuestionService
	answerService     AnswerService
	statsService      StatsService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	deps = deps.withDefaults()
	return &serviceManager{
		deps:   deps,
		logger: deps.Logger,
		config: config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	config := ServiceManagerConfig{
		LogLevel: slog.LevelInfo,

		Stats: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     cache.StatsCacheConfig.TTL,
		},
		Generation: ServiceConfig{
			Enabled: deps.Generator != nil,
		},
		Source: ServiceConfig{
			Enabled: true,
		},

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(deps, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully", "credit_policy", sm.deps.Policy.Name())

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	if sm.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}

	d := sm.deps

	sm.accountService = NewAccountService(d.Repo, d.Logger, d.Validator, d.Policy, d.Clock)
	sm.logger.Info("Account service initialized")

	sm.bancaService = NewBancaService(d.Repo, d.Logger, d.Validator)
	sm.logger.Info("Banca service initialized")

	if sm.config.Source.Enabled {
		sm.sourceService = NewSourceService(d.Repo, d.Logger, d.Validator, d.BlobStore)
		sm.logger.Info("Source service initialized", "file_uploads", d.BlobStore != nil)
	}

	if sm.config.Generation.Enabled {
		sm.generationService = NewGenerationService(d.Repo, d.Logger, d.Validator, d.Policy, d.Generator, d.Events, d.Clock)
		sm.logger.Info("Generation service initialized")
	} else {
		sm.generationService = unavailableGenerationService{}
		sm.logger.Warn("Generation service disabled, no generator configured")
	}

	sm.questionService = NewQuestionService(d.Repo, d.Logger, d.Validator, d.Cache, d.Events)
	sm.logger.Info("Question service initialized")

	sm.answerService = NewAnswerService(d.Repo, d.Logger, d.Validator, d.Cache, d.Events, d.Clock)
	sm.logger.Info("Answer service initialized")

	if sm.config.Stats.Enabled {
		statsCache := d.Cache
		if !sm.config.Stats.CacheEnabled {
			statsCache = cache.NewCacheManager(nil)
		}
		sm.statsService = NewStatsService(d.Repo, d.Logger, statsCache, sm.config.Stats.CacheTTL, d.Location, d.Clock)
		sm.logger.Info("Stats service initialized", "cache", sm.config.Stats.CacheEnabled)
	}

	return nil
}

// Service getters
func (sm *serviceManager) Account() AccountService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.accountService
}

func (sm *serviceManager) Banca() BancaService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.bancaService
}

func (sm *serviceManager) Source() SourceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Source.Enabled && sm.sourceService != nil {
		return sm.sourceService
	}

	panic("source service not enabled or not initialized")
}

func (sm *serviceManager) Generation() GenerationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.generationService != nil {
		return sm.generationService
	}

	panic("generation service not initialized")
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.questionService
}

func (sm *serviceManager) Answer() AnswerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.answerService
}

func (sm *serviceManager) Stats() StatsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Stats.Enabled && sm.statsService != nil {
		return sm.statsService
	}

	panic("stats service not enabled or not initialized")
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.deps.Events.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

func (config *ServiceManagerConfig) Validate() error {
	var errors []string

	if config.DefaultTimeout <= 0 {
		errors = append(errors, "default timeout must be positive")
	}

	if config.Stats.CacheEnabled && config.Stats.CacheTTL <= 0 {
		errors = append(errors, "stats: cache TTL must be positive when cache is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
