package repositories

import "context"

// Repository aggregates every repository the service layer needs
type Repository interface {
	// Accounts
	User() UserRepository
	Identity() IdentityRepository

	// Catalog
	Banca() BancaRepository
	Source() SourceRepository

	// Question domain
	Question() QuestionRepository
	Answer() AnswerRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
