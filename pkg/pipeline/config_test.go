package pipeline

import (
	"strings"
	"testing"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/core/row"
)

func TestDBToDBConfig_Defaults(t *testing.T) {
	cfg := DBToDBConfig{
		Source: SourceConfig{DSN: "file:src.db", Data: "t"},
		Target: TargetConfig{DSN: "file:dst.db", Target: "t"},
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Source.BufferedRows != 50000 || cfg.Source.BatchSize != 5000 || cfg.Target.Threads != 1 {
		t.Errorf("Unexpected defaults: %+v %+v", cfg.Source, cfg.Target)
	}

	src := cfg.Source.AdapterConfig(row.Formats{})
	if src.Mode != adapters.ModeReadOnly || src.FetchSize != 5000 {
		t.Errorf("Unexpected source adapter config: %+v", src)
	}
	if cfg.Target.AdapterConfig().Mode != adapters.ModeReadWrite {
		t.Error("Target must be opened read-write")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     interface{ Validate() error }
		wantErr string
	}{
		{
			name:    "missing source dsn",
			cfg:     &DBToDBConfig{Source: SourceConfig{Data: "t"}, Target: TargetConfig{DSN: "x", Target: "t"}},
			wantErr: "source dsn",
		},
		{
			name:    "missing data",
			cfg:     &DBToFileConfig{Source: SourceConfig{DSN: "x"}},
			wantErr: "source data",
		},
		{
			name:    "missing target",
			cfg:     &DBToDBConfig{Source: SourceConfig{DSN: "x", Data: "t"}, Target: TargetConfig{DSN: "y"}},
			wantErr: "destination target",
		},
		{
			name:    "negative threads",
			cfg:     &DBToDBConfig{Source: SourceConfig{DSN: "x", Data: "t"}, Target: TargetConfig{DSN: "y", Target: "t", Threads: -1}},
			wantErr: "threads",
		},
		{
			name:    "bad file mode",
			cfg:     &DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Mode: "MERGE"}},
			wantErr: "invalid file mode",
		},
		{
			name:    "bad format",
			cfg:     &DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Format: "json"}},
			wantErr: "invalid file format",
		},
		{
			name:    "xlsx to stdout",
			cfg:     &DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Format: "xlsx"}},
			wantErr: "requires a file name",
		},
		{
			name:    "compression level",
			cfg:     &DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Compress: 30}},
			wantErr: "compression level",
		},
		{
			name: "valid file",
			cfg:  &DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Mode: "append"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFileConfig_Defaults(t *testing.T) {
	cfg := DBToFileConfig{Source: SourceConfig{DSN: "x", Data: "t"}, File: FileConfig{Mode: "append", Format: "TEXT"}}
	cfg.SetDefaults()

	if cfg.File.Mode != FileModeAppend || cfg.File.Format != FormatText || cfg.File.Separator != ";" {
		t.Errorf("Unexpected defaults: %+v", cfg.File)
	}
	if cfg.File.Formats.BoolTrue != "TRUE" || cfg.File.Formats.BoolFalse != "FALSE" {
		t.Errorf("Unexpected bool tokens: %+v", cfg.File.Formats)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrInsert, "writer#1", "batch 3", errString("duplicate key"))
	want := "writer#1: insert error (batch 3): duplicate key"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if joinRunErrors([]error{nil, nil}) != nil {
		t.Error("Expected nil for no errors")
	}
	run := joinRunErrors([]error{err, nil, newError(ErrFetch, "reader", "fetch", nil)})
	if !strings.HasPrefix(run.Error(), "2 errors: ") {
		t.Errorf("Unexpected RunError text: %s", run.Error())
	}
}

type errString string

func (e errString) Error() string { return string(e) }
