package postgres

import (
	"math/big"
	"net/netip"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNormalizeValue(t *testing.T) {
	uuid := [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"uuid", uuid, "550e8400-e29b-41d4-a716-446655440000"},
		{"json object", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"numeric", pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true}, "12.50"},
		{"numeric null", pgtype.Numeric{}, nil},
		{"numeric nan", pgtype.Numeric{NaN: true, Valid: true}, "NaN"},
		{"inet", netip.MustParsePrefix("10.0.0.0/8"), "10.0.0.0/8"},
		{"time", pgtype.Time{Microseconds: (1*3600 + 2*60 + 3) * 1000000, Valid: true}, "01:02:03"},
		{"plain int", int32(7), int32(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Errorf("normalizeValue(%v) = %v (%T), want %v", tt.in, got, got, tt.want)
			}
		})
	}
}
