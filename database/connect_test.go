package database

import (
	"path/filepath"
	"testing"

	"github.com/galaplate/foundry/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		settings ConnectionSettings
		expected string
		wantErr  bool
	}{
		{
			name:     "postgres",
			settings: ConnectionSettings{Driver: "postgres", Host: "localhost", Port: "5432", Username: "app", Password: "secret", Database: "shop"},
			expected: "host=localhost port=5432 user=app password=secret dbname=shop sslmode=disable",
		},
		{
			name:     "postgresql alias",
			settings: ConnectionSettings{Driver: "postgresql", Host: "db", Port: "5432", Username: "u", Password: "p", Database: "d"},
			expected: "host=db port=5432 user=u password=p dbname=d sslmode=disable",
		},
		{
			name:     "mysql",
			settings: ConnectionSettings{Driver: "mysql", Host: "127.0.0.1", Port: "3306", Username: "root", Password: "pw", Database: "shop"},
			expected: "root:pw@tcp(127.0.0.1:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name:     "sqlite default file",
			settings: ConnectionSettings{Driver: "sqlite"},
			expected: "db/database.sqlite",
		},
		{
			name:     "sqlite file",
			settings: ConnectionSettings{Driver: "sqlite", Database: "test.sqlite"},
			expected: "test.sqlite",
		},
		{
			name:     "unsupported",
			settings: ConnectionSettings{Driver: "oracle"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := BuildDSN(tt.settings)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got DSN %q", dsn)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildDSN failed: %v", err)
			}
			if dsn != tt.expected {
				t.Errorf("expected DSN %q, got %q", tt.expected, dsn)
			}
		})
	}
}

func TestMapPostgres(t *testing.T) {
	for input, expected := range map[string]string{
		"pgsql":      "postgres",
		"PostgreSQL": "postgres",
		"postgres":   "postgres",
		"mysql":      "mysql",
	} {
		if got := MapPostgres(input); got != expected {
			t.Errorf("MapPostgres(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestDialectorFromConfig(t *testing.T) {
	t.Cleanup(func() { config.InitializeGlobal(nil) })

	config.InitializeGlobal(map[string]any{
		"database": map[string]any{
			"default": "testing",
			"connections": map[string]any{
				"testing": map[string]any{
					"driver":   "sqlite",
					"database": filepath.Join(t.TempDir(), "foundry.sqlite"),
				},
				"postgres": map[string]any{
					"driver": "pgsql",
					"host":   "localhost",
				},
			},
		},
	})

	if got := GetDriver("testing"); got != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", got)
	}

	dialector, err := DialectorFor("pgsql")
	if err != nil {
		t.Fatalf("DialectorFor failed: %v", err)
	}
	if dialector.Name() != "postgres" {
		t.Errorf("expected postgres dialector, got %s", dialector.Name())
	}

	db, err := Open(WithGormConfig(&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if err := db.Create(&widget{Name: "gear"}).Error; err != nil {
		t.Fatalf("Failed to create widget: %v", err)
	}
}

func TestDialectorRequiresConnection(t *testing.T) {
	config.InitializeGlobal(nil)

	if _, err := Open(); err == nil {
		t.Fatal("expected an error without database.default")
	}
}

func TestNewWithDialector(t *testing.T) {
	previous := Connect
	t.Cleanup(func() { Connect = previous })

	err := New(
		WithDialector(sqlite.Open(filepath.Join(t.TempDir(), "connect.sqlite"))),
		WithGormConfig(&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if Connect == nil {
		t.Fatal("expected Connect to be set")
	}
	if Connect.Dialector.Name() != "sqlite" {
		t.Errorf("expected sqlite, got %s", Connect.Dialector.Name())
	}
}
