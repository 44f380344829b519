package processors

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty data",
			data: []byte{},
		},
		{
			name: "simple text",
			data: []byte("Hello, World!"),
		},
		{
			name: "binary data",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC},
		},
		{
			name: "large data",
			data: make([]byte, 10000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash1 := ComputeChecksum(tt.data)
			hash2 := ComputeChecksum(tt.data)

			// Consistency check: same data should produce same hash
			if hash1 != hash2 {
				t.Errorf("ComputeChecksum() not consistent: %v != %v", hash1, hash2)
			}

			// Format check: should be 16 hex characters (8 bytes)
			if len(hash1) != 16 {
				t.Errorf("ComputeChecksum() length = %d, want 16", len(hash1))
			}

			// Different data should produce different hash (basic sanity)
			if len(tt.data) > 0 {
				modifiedData := append([]byte{}, tt.data...)
				modifiedData[0] ^= 0xFF // Flip bits
				hash3 := ComputeChecksum(modifiedData)
				if hash1 == hash3 {
					t.Errorf("ComputeChecksum() collision: modified data has same hash")
				}
			}
		})
	}
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("Test data for validation")
	correctHash := ComputeChecksum(data)

	tests := []struct {
		name         string
		data         []byte
		expectedHash string
		wantErr      bool
	}{
		{
			name:         "valid checksum",
			data:         data,
			expectedHash: correctHash,
			wantErr:      false,
		},
		{
			name:         "invalid checksum",
			data:         data,
			expectedHash: "0000000000000000",
			wantErr:      true,
		},
		{
			name:         "corrupted data",
			data:         []byte("Modified data"),
			expectedHash: correctHash,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChecksum(tt.data, tt.expectedHash)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChecksumWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)

	parts := []string{"\"a\";\"1\"", "\n", "\"b\";\"2\""}
	for _, p := range parts {
		if _, err := cw.Write([]byte(p)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	want := ComputeChecksum([]byte(strings.Join(parts, "")))
	if got := cw.Sum(); got != want {
		t.Errorf("Sum() = %s, want %s", got, want)
	}
	if buf.String() != strings.Join(parts, "") {
		t.Errorf("Underlying writer got %q", buf.String())
	}
}

func TestChecksumFile(t *testing.T) {
	data := bytes.Repeat([]byte("row;value\n"), 50000)
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	sum, size, err := ChecksumFile(path)
	if err != nil {
		t.Fatalf("ChecksumFile failed: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), size)
	}
	if sum != ComputeChecksum(data) {
		t.Errorf("Expected %s, got %s", ComputeChecksum(data), sum)
	}

	if _, _, err := ChecksumFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing file")
	}
}
