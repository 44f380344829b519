package adapters_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	_ "github.com/ruslano69/sqlcp/pkg/adapters/mssql"    // Register mssql
	_ "github.com/ruslano69/sqlcp/pkg/adapters/mysql"    // Register mysql
	_ "github.com/ruslano69/sqlcp/pkg/adapters/postgres" // Register postgres
	_ "github.com/ruslano69/sqlcp/pkg/adapters/sqlite"   // Register sqlite
)

// TestFactory_Registration проверяет регистрацию всех адаптеров
func TestFactory_Registration(t *testing.T) {
	types := adapters.GetRegisteredTypes()
	want := []string{"mssql", "mysql", "postgres", "sqlite"}

	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("Expected registered types %v, got %v", want, types)
	}

	for _, dbType := range want {
		if !adapters.IsRegistered(dbType) {
			t.Errorf("Expected %s to be registered", dbType)
		}
		adapter, err := adapters.NewWithoutConnect(dbType)
		if err != nil {
			t.Fatalf("NewWithoutConnect(%s) failed: %v", dbType, err)
		}
		if adapter.GetDatabaseType() != dbType {
			t.Errorf("Expected type '%s', got '%s'", dbType, adapter.GetDatabaseType())
		}
	}
}

// TestFactory_SQLite проверяет создание SQLite адаптера через фабрику
func TestFactory_SQLite(t *testing.T) {
	ctx := context.Background()

	adapter, err := adapters.New(ctx, adapters.Config{
		Type: "sqlite",
		DSN:  ":memory:",
		Mode: adapters.ModeReadWrite,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite adapter: %v", err)
	}
	defer adapter.Close(ctx)

	if err := adapter.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

// TestFactory_DetectsTypeFromDSN проверяет определение типа по DSN
func TestFactory_DetectsTypeFromDSN(t *testing.T) {
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "detect.db")
	adapter, err := adapters.New(ctx, adapters.Config{DSN: dsn, Mode: adapters.ModeReadWrite})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	defer adapter.Close(ctx)

	if adapter.GetDatabaseType() != "sqlite" {
		t.Errorf("Expected type 'sqlite', got '%s'", adapter.GetDatabaseType())
	}
}

// TestFactory_UnknownAdapter проверяет обработку неизвестного типа адаптера
func TestFactory_UnknownAdapter(t *testing.T) {
	ctx := context.Background()

	_, err := adapters.New(ctx, adapters.Config{
		Type: "unknown_db",
		DSN:  "some_connection_string",
	})
	if err == nil {
		t.Fatal("Expected error for unknown adapter type, got nil")
	}

	if !strings.Contains(err.Error(), "unknown database type") {
		t.Errorf("Expected error to contain 'unknown database type', got '%s'", err.Error())
	}
}

// TestFactory_UndetectableDSN проверяет ошибку, когда тип не задан и не определяется
func TestFactory_UndetectableDSN(t *testing.T) {
	_, err := adapters.New(context.Background(), adapters.Config{DSN: "some_connection_string"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "cannot detect database type") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestFactory_ConnectFailureIsWrapped проверяет, что ошибка подключения содержит тип и режим
func TestFactory_ConnectFailureIsWrapped(t *testing.T) {
	_, err := adapters.New(context.Background(), adapters.Config{
		Type: "mysql",
		DSN:  "not a valid dsn",
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to connect to mysql (read-only)") {
		t.Errorf("Unexpected error: %v", err)
	}
}
