package testing

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/galaplate/foundry/config"
	"github.com/galaplate/foundry/database"
	"github.com/galaplate/foundry/database/factory"
	"github.com/galaplate/foundry/env"
	"github.com/galaplate/foundry/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type TestConfig struct {
	EnvFile         string
	ConfigPath      string
	Connection      string
	Models          []any
	RefreshDatabase bool
	Seed            int64
	FactoryOptions  []factory.Option
	CustomBootstrap func(*TestCase)
	GormConfig      *gorm.Config
}

// TestCase boots foundry on a database for every test. Without a Connection
// each suite gets its own in-memory sqlite database. Models are migrated when
// the suite connects.
type TestCase struct {
	suite.Suite
	DB                *gorm.DB
	Foundry           *factory.Configuration
	Config            *TestConfig
	refreshDatabase   bool
	databaseRefreshed bool
	projectRoot       string
}

func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		EnvFile:         ".env.testing",
		ConfigPath:      "./config",
		RefreshDatabase: false,
	}
}

func NewTestCase(opts ...func(*TestConfig)) *TestCase {
	cfg := DefaultTestConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	return &TestCase{
		Config:          cfg,
		refreshDatabase: cfg.RefreshDatabase,
	}
}

func (tc *TestCase) SetupTest() {
	if tc.Config == nil {
		tc.Config = DefaultTestConfig()
	}
	if tc.Config.RefreshDatabase {
		tc.refreshDatabase = true
	}

	tc.ensureProjectRoot()
	tc.loadEnvironment()
	tc.connect()
	tc.handleDatabaseRefresh()
	tc.bootFoundry()

	if tc.Config.CustomBootstrap != nil {
		tc.Config.CustomBootstrap(tc)
	}
}

func (tc *TestCase) ensureProjectRoot() {
	if tc.projectRoot != "" {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Panicf("Failed to get current directory: %v", err)
	}

	// walk up to the directory holding go.mod
	projectRoot := cwd
	for i := 0; i <= 10; i++ {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			projectRoot = cwd
			break
		}
		projectRoot = parent
	}

	tc.projectRoot = projectRoot

	if os.Getenv("FOUNDRY_LOGS_DIR") == "" {
		if err := logger.ReinitializeForTesting(projectRoot); err != nil {
			log.Printf("Warning: Failed to reinitialize logger: %v", err)
		}
	}
}

func (tc *TestCase) loadEnvironment() {
	if tc.Config.EnvFile != "" {
		possiblePaths := []string{
			filepath.Join(tc.projectRoot, "tests", tc.Config.EnvFile),
			filepath.Join(tc.projectRoot, tc.Config.EnvFile),
			tc.Config.EnvFile,
		}

		for _, envPath := range possiblePaths {
			if _, err := os.Stat(envPath); err != nil {
				continue
			}
			if err := env.Load(envPath); err != nil {
				log.Printf("Warning: Error loading env file %s: %v", envPath, err)
			}
			break
		}
	}

	os.Setenv("APP_ENV", "testing")

	if tc.Config.ConfigPath == "" {
		return
	}

	configPath := tc.Config.ConfigPath
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(tc.projectRoot, configPath)
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	if err := config.LoadGlobal(configPath); err != nil {
		log.Printf("Warning: Failed to load config from %s: %v", configPath, err)
	}
}

func (tc *TestCase) connect() {
	if tc.DB != nil {
		return
	}

	gormConfig := tc.Config.GormConfig
	if gormConfig == nil {
		gormConfig = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}

	var (
		db  *gorm.DB
		err error
	)

	if tc.Config.Connection != "" {
		db, err = database.Open(database.WithConnection(tc.Config.Connection), database.WithGormConfig(gormConfig))
	} else {
		db, err = gorm.Open(sqlite.Open(InMemoryDSN()), gormConfig)
	}
	if err != nil {
		log.Panicf("Failed to connect to the test database: %v", err)
	}

	if tc.Config.Connection == "" {
		sqlDB, err := db.DB()
		if err != nil {
			log.Panicf("Failed to access the test database: %v", err)
		}
		// the in-memory database lives as long as its single connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if len(tc.Config.Models) > 0 {
		if err := db.AutoMigrate(tc.Config.Models...); err != nil {
			log.Panicf("Failed to migrate test models: %v", err)
		}
	}

	tc.DB = db
}

// InMemoryDSN names a fresh shared-cache in-memory sqlite database.
func InMemoryDSN() string {
	return fmt.Sprintf("file:foundry_%s?mode=memory&cache=shared", uuid.NewString())
}

func (tc *TestCase) handleDatabaseRefresh() {
	if tc.refreshDatabase && !tc.databaseRefreshed {
		if err := tc.RefreshDatabase(); err != nil {
			log.Printf("Warning: Failed to refresh database: %v", err)
			log.Printf("Continuing with existing database state...")
		} else {
			tc.databaseRefreshed = true
		}
	}
}

func (tc *TestCase) bootFoundry() {
	opts := []factory.Option{}
	if tc.Config.Seed != 0 {
		opts = append(opts, factory.WithSeed(tc.Config.Seed))
	}
	opts = append(opts, tc.Config.FactoryOptions...)

	tc.Foundry = factory.FromConfig(tc.DB, opts...)
	factory.Boot(tc.Foundry)
}

func (tc *TestCase) EnableRefreshDatabase() {
	tc.refreshDatabase = true
}

// RefreshDatabase drops and re-creates the tables of the configured models.
func (tc *TestCase) RefreshDatabase() error {
	if len(tc.Config.Models) == 0 {
		return nil
	}

	migrator := tc.DB.Migrator()
	if err := migrator.DropTable(tc.Config.Models...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if err := migrator.AutoMigrate(tc.Config.Models...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	return nil
}

func (tc *TestCase) RefreshDatabaseBetweenTests() {
	tc.databaseRefreshed = false
}

func (tc *TestCase) TearDownTest() {
	factory.Shutdown()
}

func (tc *TestCase) TearDownSuite() {
	if tc.DB != nil {
		sqlDB, err := tc.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
		tc.DB = nil
	}
}

func (tc *TestCase) GetDB() *gorm.DB {
	if tc.DB == nil {
		tc.connect()
	}
	return tc.DB
}

func (tc *TestCase) GetProjectRoot() string {
	return tc.projectRoot
}
