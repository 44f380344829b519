package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fileName string
		want     Location
		wantErr  bool
	}{
		{name: "bucket and key", raw: "s3://exports/daily/users.csv", want: Location{"exports", "daily/users.csv"}},
		{name: "prefix gets file name", raw: "s3://exports/daily/", fileName: "/tmp/out/users.csv.zst", want: Location{"exports", "daily/users.csv.zst"}},
		{name: "bucket only", raw: "s3://exports", fileName: "users.csv", want: Location{"exports", "users.csv"}},
		{name: "empty key without file", raw: "s3://exports/", wantErr: true},
		{name: "wrong scheme", raw: "https://exports/users.csv", wantErr: true},
		{name: "no bucket", raw: "s3:///users.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseS3URL(tt.raw, tt.fileName)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("Expected ErrInvalidURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestLocation_String(t *testing.T) {
	loc := Location{Bucket: "b", Key: "k/v.csv"}
	if loc.String() != "s3://b/k/v.csv" {
		t.Errorf("Unexpected location: %s", loc)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.csv":     "text/csv",
		"a.csv.zst": "application/zstd",
		"a.XLSX":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"a.txt":     "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestUploader_UploadFile(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, data
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "users.csv")
	if err := os.WriteFile(file, []byte(`"a";"1"`), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	ctx := context.Background()
	u, err := NewUploader(ctx, Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewUploader failed: %v", err)
	}

	if err := u.UploadFile(ctx, file, Location{Bucket: "exports", Key: "daily/users.csv"}); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", method)
	}
	if path != "/exports/daily/users.csv" {
		t.Errorf("Expected path-style object path, got %s", path)
	}
	if len(body) == 0 {
		t.Error("Expected non-empty request body")
	}
}

func TestUploader_MissingFile(t *testing.T) {
	u, err := NewUploader(context.Background(), Config{Region: "us-east-1", AccessKey: "x", SecretKey: "y"})
	if err != nil {
		t.Fatalf("NewUploader failed: %v", err)
	}
	err = u.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Location{"b", "k"})
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
