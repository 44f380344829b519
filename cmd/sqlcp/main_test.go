package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/ruslano69/sqlcp/pkg/resultlog"
)

// createSourceDB creates a sqlite database with table users(id, name)
func createSourceDB(t *testing.T, rows int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "src.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE users (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	for i := 1; i <= rows; i++ {
		if _, err := db.Exec("INSERT INTO users VALUES (?, ?)", i, fmt.Sprintf("user-%d", i)); err != nil {
			t.Fatalf("Failed to insert row: %v", err)
		}
	}
	return path
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{name: "no args", args: nil, wantCode: exitFailed},
		{name: "version", args: []string{"-version"}, wantCode: exitOK, wantOut: "sqlcp version " + version},
		{name: "help", args: []string{"help"}, wantCode: exitOK, wantOut: "COMMANDS:"},
		{name: "unknown command", args: []string{"file2db"}, wantCode: exitFailed},
		{name: "command help", args: []string{"db2file", "-help"}, wantCode: exitOK},
		{name: "bad flag", args: []string{"db2db", "-no-such-flag"}, wantCode: exitFailed},
		{name: "extra argument", args: []string{"db2db", "extra"}, wantCode: exitFailed},
		{name: "missing source", args: []string{"db2file"}, wantCode: exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d", tt.wantCode, code)
			}
			if tt.wantOut != "" && !strings.Contains(stdout, tt.wantOut) {
				t.Errorf("Expected stdout to contain %q, got %q", tt.wantOut, stdout)
			}
		})
	}
}

func TestRun_DBToFile(t *testing.T) {
	src := createSourceDB(t, 2)
	out := filepath.Join(t.TempDir(), "users.csv")

	code, _, stderr := runCLI(t, "db2file",
		"-src-dsn", src,
		"-src-data", "select name, id from users order by id",
		"-dest-file", out,
		"-summary")
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := "\"user-1\";\"1\"\n\"user-2\";\"2\""
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
	if !strings.Contains(stderr, "rows exported : 2") {
		t.Errorf("Expected file summary on stderr, got %q", stderr)
	}
}

func TestRun_DBToFileStdout(t *testing.T) {
	src := createSourceDB(t, 3)

	code, stdout, stderr := runCLI(t, "db2file",
		"-src-dsn", src,
		"-src-data", "users",
		"-dest-separator", "|",
		"-dest-header")
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}

	lines := strings.Split(stdout, "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header and 3 rows, got %q", stdout)
	}
	if lines[0] != `"id"|"name"` {
		t.Errorf("Unexpected header %q", lines[0])
	}
}

func TestRun_DBToFileConflict(t *testing.T) {
	src := createSourceDB(t, 1)
	out := filepath.Join(t.TempDir(), "exists.csv")
	if err := os.WriteFile(out, []byte("keep"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	code, _, _ := runCLI(t, "db2file",
		"-src-dsn", src, "-src-data", "users",
		"-dest-file", out, "-dest-file-mode", "append")
	if code != exitFailed {
		t.Errorf("Expected exit 1 for existing file in APPEND mode, got %d", code)
	}

	data, _ := os.ReadFile(out)
	if string(data) != "keep" {
		t.Errorf("Existing file must stay untouched, got %q", string(data))
	}
}

func TestRun_DBToDB(t *testing.T) {
	src := createSourceDB(t, 250)
	dst := filepath.Join(t.TempDir(), "dst.db")

	code, _, stderr := runCLI(t, "db2db",
		"-src-dsn", src,
		"-src-data", "users",
		"-batch-size", "40",
		"-buffered-rows", "100",
		"-dest-dsn", dst,
		"-dest-target", "users_copy",
		"-dest-sql-before-import", "CREATE TABLE IF NOT EXISTS users_copy (id INTEGER, name TEXT)",
		"-dest-threads", "3",
		"-summary")
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}

	if n := countRows(t, dst, "users_copy"); n != 250 {
		t.Errorf("Expected 250 rows copied, got %d", n)
	}
	if !strings.Contains(stderr, "250rows inserted") {
		t.Errorf("Expected db summary on stderr, got %q", stderr)
	}
}

func TestRun_DBToDBPreImportFailure(t *testing.T) {
	src := createSourceDB(t, 10)
	dst := filepath.Join(t.TempDir(), "dst.db")

	code, _, _ := runCLI(t, "db2db",
		"-src-dsn", src, "-src-data", "users",
		"-dest-dsn", dst, "-dest-target", "users_copy",
		"-dest-sql-before-import", "DELETE FROM missing_table")
	if code != exitFailed {
		t.Errorf("Expected exit 1 when pre-import fails, got %d", code)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	src := createSourceDB(t, 5)
	dir := t.TempDir()
	out := filepath.Join(dir, "from-config.csv")
	override := filepath.Join(dir, "from-flag.csv")

	job := &JobConfig{}
	job.Source.DSN = src
	job.Source.Data = "users"
	job.File.Name = out
	job.File.RowCounter = true
	cfgPath := filepath.Join(dir, "job.yaml")
	if err := SaveConfig(cfgPath, job); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	code, _, stderr := runCLI(t, "db2file", "-config", cfgPath, "-dest-file", override)
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}

	if _, err := os.Stat(out); err == nil {
		t.Error("Explicit -dest-file must override the config file")
	}
	data, err := os.ReadFile(override)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), `1;"1";"user-1"`) {
		t.Errorf("Expected row counter from config, got %q", string(data))
	}
}

func TestRun_PrintParamsOnly(t *testing.T) {
	code, stdout, _ := runCLI(t, "db2db",
		"-src-dsn", "postgres://app:secret@db/src",
		"-src-data", "users",
		"-dest-dsn", "dst.db",
		"-dest-password", "hunter2",
		"-dest-target", "users",
		"-print-params-only")
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d", code)
	}

	if strings.Contains(stdout, "secret") || strings.Contains(stdout, "hunter2") {
		t.Errorf("Passwords must be masked, got %s", stdout)
	}
	for _, want := range []string{"# sqlcp db2db", "buffered_rows: 50000", "batch_size: 5000", "threads: 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected %q in output:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "separator") {
		t.Errorf("db2db parameters must not include file settings:\n%s", stdout)
	}
}

func TestRun_Reporting(t *testing.T) {
	mr := miniredis.RunT(t)
	src := createSourceDB(t, 4)
	dir := t.TempDir()
	auditFile := filepath.Join(dir, "audit.log")

	code, _, stderr := runCLI(t, "db2file",
		"-src-dsn", src, "-src-data", "users",
		"-dest-file", filepath.Join(dir, "out.csv"),
		"-result-redis-addr", mr.Addr(),
		"-result-name", "nightly",
		"-audit-file", auditFile)
	if code != exitOK {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr)
	}

	state, err := mr.Get(resultlog.StateKey("nightly"))
	if err != nil {
		t.Fatalf("Expected published state: %v", err)
	}
	if !strings.Contains(state, `"rows_written":4`) {
		t.Errorf("Unexpected published state %s", state)
	}

	data, err := os.ReadFile(auditFile)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected started, finished and publish entries, got %d:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"status":"started"`) || !strings.Contains(lines[1], `"status":"success"`) {
		t.Errorf("Unexpected audit entries:\n%s", data)
	}
}

func TestRun_UploadRequiresFile(t *testing.T) {
	src := createSourceDB(t, 1)
	code, _, _ := runCLI(t, "db2file",
		"-src-dsn", src, "-src-data", "users",
		"-upload-s3", "s3://bucket/key")
	if code != exitFailed {
		t.Errorf("Expected exit 1 for upload without file, got %d", code)
	}
}
