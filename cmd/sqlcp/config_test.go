package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	yml := `
source:
  dsn: postgres://app@db/src
  data: select * from users
  batch_size: 1000
target:
  dsn: dst.db
  target: users
  threads: 4
  bind_types: INTEGER,VARCHAR
runtime:
  status_interval: 30s
  summary: true
report:
  audit_file: audit.log
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	job, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if job.Source.BatchSize != 1000 {
		t.Errorf("Expected batch size 1000, got %d", job.Source.BatchSize)
	}
	if job.Target.Threads != 4 || job.Target.BindTypes != "INTEGER,VARCHAR" {
		t.Errorf("Unexpected target: %+v", job.Target)
	}
	if job.Runtime.StatusInterval != 30*time.Second || !job.Runtime.PrintSummary {
		t.Errorf("Unexpected runtime: %+v", job.Runtime)
	}
	if job.Report.AuditFile != "audit.log" {
		t.Errorf("Expected audit file, got %q", job.Report.AuditFile)
	}

	cfg := job.DBToDB()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid db2db config, got %v", err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("source: [unclosed"), 0o644)
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestParseJob_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	job := &JobConfig{}
	job.Source.DSN = "src.db"
	job.Source.Data = "users"
	job.Target.DSN = "dst.db"
	job.Target.Target = "users"
	job.Target.Threads = 2
	if err := SaveConfig(path, job); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, opts, err := parseJob(cmdDBToDB, []string{"-config", path, "-dest-threads", "8", "-gc-interval", "1m"}, io.Discard)
	if err != nil {
		t.Fatalf("parseJob failed: %v", err)
	}
	if opts.Config != path {
		t.Errorf("Expected config path %s, got %s", path, opts.Config)
	}
	if got.Target.Threads != 8 {
		t.Errorf("Expected threads from flag (8), got %d", got.Target.Threads)
	}
	if got.Source.Data != "users" || got.Target.DSN != "dst.db" {
		t.Errorf("Expected values from config to survive, got %+v", got)
	}
	if got.Runtime.GCInterval != time.Minute {
		t.Errorf("Expected gc interval 1m, got %v", got.Runtime.GCInterval)
	}
}

func TestParseJob_CommandFlags(t *testing.T) {
	if _, _, err := parseJob(cmdDBToDB, []string{"-dest-file", "x.csv"}, io.Discard); err == nil {
		t.Error("db2db must not accept -dest-file")
	}
	if _, _, err := parseJob(cmdDBToFile, []string{"-dest-threads", "2"}, io.Discard); err == nil {
		t.Error("db2file must not accept -dest-threads")
	}

	job, _, err := parseJob(cmdDBToFile, []string{"-fmt-null", "NULL", "-dest-compress", "5"}, io.Discard)
	if err != nil {
		t.Fatalf("parseJob failed: %v", err)
	}
	if job.File.Formats.Null != "NULL" || job.File.Compress != 5 {
		t.Errorf("Unexpected file config: %+v", job.File)
	}
}

func TestJobConfig_Masked(t *testing.T) {
	job := JobConfig{}
	job.Source.DSN = "postgres://app:secret@db/src"
	job.Source.Password = "p1"
	job.Target.Password = "p2"
	job.Report.S3.SecretKey = "s3key"

	m := job.Masked()
	if m.Source.DSN != "postgres://app:xxxxx@db/src" {
		t.Errorf("Expected masked DSN, got %s", m.Source.DSN)
	}
	if m.Source.Password != maskedPassword || m.Target.Password != maskedPassword || m.Report.S3.SecretKey != maskedPassword {
		t.Errorf("Expected masked passwords, got %+v", m)
	}
	if job.Source.Password != "p1" {
		t.Error("Masked must not modify the original")
	}
	if m.Report.Redis.Password != "" {
		t.Error("Empty password must stay empty")
	}
}
