package adapters

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		style PlaceholderStyle
		in    string
		want  string
	}{
		{"question untouched", PlaceholderQuestion, "insert into t(a,b) values (?,?)", "insert into t(a,b) values (?,?)"},
		{"dollar", PlaceholderDollar, "insert into t(a,b) values (?,?)", "insert into t(a,b) values ($1,$2)"},
		{"at-p", PlaceholderAtP, "insert into t(a,b) values (?,?)", "insert into t(a,b) values (@p1,@p2)"},
		{"literal skipped", PlaceholderDollar, "insert into t values ('?', ?)", "insert into t values ('?', $1)"},
		{"quoted ident skipped", PlaceholderAtP, `insert into "a?" ([b?]) values (?)`, `insert into "a?" ([b?]) values (@p1)`},
		{"escaped quote", PlaceholderDollar, "select 'it''s ?', ?", "select 'it''s ?', $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.style, tt.in); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}
