package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/blmheader/internal/log"
)

// Client holds the connection to the TimescaleDB signal store
type Client struct {
	connectionString string
	DB               *gorm.DB
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect(ctx context.Context) error {
	db, err := CreateConnection(c.connectionString)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unable to get TimescaleDB handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("unable to reach TimescaleDB: %w", err)
	}
	c.DB = db
	c.logger.Info("TimescaleDB connection successful")
	return nil
}

// CreateSchema creates the signal tables and turns signal_samples into a
// hypertable. It is safe to run against an existing schema.
func (c *Client) CreateSchema(ctx context.Context) error {
	db := c.DB.WithContext(ctx)
	for _, stmt := range []string{createExtensionSQL, createSignalsTableSQL, createSamplesTableSQL, createHypertableSQL, createSamplesIndexSQL} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error creating signal schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             5 * time.Second, // range scans are slow by nature
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Infof("connecting to TimescaleDB at %s", redact(connectionString))
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warnf("unable to create a TimescaleDB connection: %v", err)
		return nil, err
	}

	return db, nil
}

// redact hides the password of a connection string before it is logged.
func redact(connectionString string) string {
	u, err := url.Parse(connectionString)
	if err != nil || u.Scheme == "" {
		return "(DSN)"
	}
	return u.Redacted()
}
