package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/galaplate/foundry/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect is the connection opened by New.
var Connect *gorm.DB

type Config struct {
	GormConfig *gorm.Config
	Connection string
	Dialector  gorm.Dialector
}

// ConnectionSettings is one entry of database.connections.
type ConnectionSettings struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

type OptFunc func(*Config)

// WithConnection selects a database.connections entry instead of
// database.default.
func WithConnection(name string) OptFunc {
	return func(c *Config) {
		c.Connection = name
	}
}

func WithGormConfig(gormConfig *gorm.Config) OptFunc {
	return func(c *Config) {
		c.GormConfig = gormConfig
	}
}

// WithDialector bypasses the configured connections.
func WithDialector(dialector gorm.Dialector) OptFunc {
	return func(c *Config) {
		c.Dialector = dialector
	}
}

// New opens the configured connection and stores it in Connect.
func New(opts ...OptFunc) error {
	db, err := Open(opts...)
	if err != nil {
		return err
	}
	Connect = db
	return nil
}

// Open opens a connection without touching Connect.
func Open(opts ...OptFunc) (*gorm.DB, error) {
	cfg := DefaultGormConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	dialector := cfg.Dialector
	if dialector == nil {
		connection := cfg.Connection
		if connection == "" {
			connection = config.ConfigString("database.default")
		}

		var err error
		dialector, err = DialectorFor(connection)
		if err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(dialector, cfg.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return db, nil
}

// DefaultGormConfig returns default GORM configuration
func DefaultGormConfig() *Config {
	var logLevel logger.LogLevel

	switch strings.ToLower(config.ConfigString("database.log_level")) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return &Config{
		GormConfig: &gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold:             time.Second,
					LogLevel:                  logLevel,
					IgnoreRecordNotFoundError: true,
					ParameterizedQueries:      true,
					Colorful:                  true,
				},
			),
			DisableForeignKeyConstraintWhenMigrating: true,
		},
	}
}

// Settings reads database.connections.<connection>.
func Settings(connection string) ConnectionSettings {
	key := "database.connections." + MapPostgres(connection)

	return ConnectionSettings{
		Driver:   config.ConfigString(key + ".driver"),
		Host:     config.ConfigString(key + ".host"),
		Port:     config.ConfigString(key + ".port"),
		Username: config.ConfigString(key + ".username"),
		Password: config.ConfigString(key + ".password"),
		Database: config.ConfigString(key + ".database"),
	}
}

func DialectorFor(connection string) (gorm.Dialector, error) {
	if connection == "" {
		return nil, fmt.Errorf("no database connection configured (database.default)")
	}

	settings := Settings(connection)
	if settings.Driver == "" {
		settings.Driver = connection
	}
	settings.Driver = MapPostgres(settings.Driver)

	dsn, err := BuildDSN(settings)
	if err != nil {
		return nil, err
	}

	switch settings.Driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

func BuildDSN(s ConnectionSettings) (string, error) {
	switch MapPostgres(s.Driver) {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			s.Host, s.Port, s.Username, s.Password, s.Database,
		), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			s.Username, s.Password, s.Host, s.Port, s.Database,
		), nil
	case "sqlite":
		if s.Database == "" {
			return "db/database.sqlite", nil
		}
		return s.Database, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s (supported: sqlite, mysql, postgres)", s.Driver)
	}
}

func GetDriver(connection string) string {
	return Settings(connection).Driver
}

// MapPostgres normalizes the aliases of the postgres driver.
func MapPostgres(name string) string {
	switch strings.ToLower(name) {
	case "pgsql", "postgresql":
		return "postgres"
	default:
		return name
	}
}
