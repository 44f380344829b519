package main

import (
	"fmt"
	"io"
)

const version = "1.0.0"

// PrintVersion prints version information
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "sqlcp version %s\n", version)
}

// PrintHelp prints the command overview; per-command flags are listed by
// "sqlcp <command> -help".
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "sqlcp - streaming copy of query results between databases and files")
	fmt.Fprintf(w, "Version: %s\n\n", version)

	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  sqlcp <command> [options]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  db2db      Copy a query result or table into a destination table")
	fmt.Fprintln(w, "  db2file    Export a query result or table to a text or xlsx file")
	fmt.Fprintln(w, "  version    Print version")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "COMMON OPTIONS:")
	fmt.Fprintln(w, "  -config <file>             YAML job file (flags override it)")
	fmt.Fprintln(w, "  -src-dsn <dsn>             Source connection string")
	fmt.Fprintln(w, "  -src-data <sql|table>      SELECT query or table name")
	fmt.Fprintln(w, "  -buffered-rows <n>         Queue limit in rows (default: 50000)")
	fmt.Fprintln(w, "  -batch-size <n>            Rows per fetch/insert batch (default: 5000)")
	fmt.Fprintln(w, "  -summary                   Print run summary")
	fmt.Fprintln(w, "  -print-params-only         Print effective parameters and exit")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  sqlcp db2db -src-dsn src.db -src-data users \\")
	fmt.Fprintln(w, "      -dest-dsn postgres://app@localhost/dw -dest-target users -dest-threads 4")
	fmt.Fprintln(w, "  sqlcp db2file -src-dsn src.db -src-data \"select * from users\" \\")
	fmt.Fprintln(w, "      -dest-file users.csv.zst -dest-header -dest-compress 3 -dest-checksum")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'sqlcp <command> -help' for all options of a command.")
}
