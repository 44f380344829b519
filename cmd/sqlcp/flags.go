package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// Commands
const (
	cmdDBToDB   = "db2db"
	cmdDBToFile = "db2file"
)

// Options holds command-line switches that are not part of the job file
type Options struct {
	Config          string
	PrintParamsOnly bool
}

// bindFlags registers the flags of command on fs. Current values of job are
// the defaults, so values loaded from -config survive unless a flag is given.
func bindFlags(fs *flag.FlagSet, command string, job *JobConfig, opts *Options) {
	fs.StringVar(&opts.Config, "config", opts.Config, "YAML job file; explicit flags override its values")
	fs.BoolVar(&opts.PrintParamsOnly, "print-params-only", false, "Print effective parameters and exit")

	// Source
	src := &job.Source
	fs.StringVar(&src.Type, "src-type", src.Type, "Source database type: postgres, mssql, mysql, sqlite (default: detect from DSN)")
	fs.StringVar(&src.DSN, "src-dsn", src.DSN, "Source connection string")
	fs.StringVar(&src.User, "src-user", src.User, "Source user")
	fs.StringVar(&src.Password, "src-password", src.Password, "Source password")
	fs.StringVar(&src.Data, "src-data", src.Data, "SELECT query or table name")
	fs.IntVar(&src.BufferedRows, "buffered-rows", src.BufferedRows, "Max rows buffered between reader and output")
	fs.IntVar(&src.BatchSize, "batch-size", src.BatchSize, "Rows per fetch and per insert batch")
	fs.DurationVar(&src.ConnectTimeout, "src-timeout", src.ConnectTimeout, "Source connect timeout")

	// Runtime
	rt := &job.Runtime
	fs.DurationVar(&rt.GCInterval, "gc-interval", rt.GCInterval, "Release memory to the OS every interval (0 = off)")
	fs.DurationVar(&rt.StatusInterval, "runtime-info", rt.StatusInterval, "Log a status line every interval (0 = off)")
	fs.BoolVar(&rt.PrintSummary, "summary", rt.PrintSummary, "Print run summary to stderr")

	switch command {
	case cmdDBToDB:
		dst := &job.Target
		fs.StringVar(&dst.Type, "dest-type", dst.Type, "Destination database type (default: detect from DSN)")
		fs.StringVar(&dst.DSN, "dest-dsn", dst.DSN, "Destination connection string")
		fs.StringVar(&dst.User, "dest-user", dst.User, "Destination user")
		fs.StringVar(&dst.Password, "dest-password", dst.Password, "Destination password")
		fs.StringVar(&dst.Target, "dest-target", dst.Target, "Destination table or INSERT statement")
		fs.StringVar(&dst.SQLBeforeImport, "dest-sql-before-import", dst.SQLBeforeImport, "Statement executed once before writers start")
		fs.IntVar(&dst.Threads, "dest-threads", dst.Threads, "Number of writer threads")
		fs.StringVar(&dst.BindTypes, "dest-bind-types", dst.BindTypes, "Comma-separated bind types (VARCHAR,INTEGER,...)")
		fs.DurationVar(&dst.ConnectTimeout, "dest-timeout", dst.ConnectTimeout, "Destination connect timeout")

	case cmdDBToFile:
		file := &job.File
		fs.StringVar(&file.Name, "dest-file", file.Name, "Output file (default: stdout)")
		fs.StringVar(&file.Mode, "dest-file-mode", file.Mode, "OVERWRITE or APPEND")
		fs.StringVar(&file.Separator, "dest-separator", file.Separator, "Field separator")
		fs.BoolVar(&file.Header, "dest-header", file.Header, "Write a header line with column names")
		fs.BoolVar(&file.RowCounter, "dest-row-counter", file.RowCounter, "Prefix each line with a row number")
		fs.StringVar(&file.Format, "dest-format", file.Format, "Output format: text or xlsx")
		fs.StringVar(&file.Sheet, "dest-sheet", file.Sheet, "Sheet name for xlsx output")
		fs.IntVar(&file.Compress, "dest-compress", file.Compress, "zstd compression level for text output (0 = off)")
		fs.BoolVar(&file.Checksum, "dest-checksum", file.Checksum, "Compute XXH3 checksum of written bytes")

		f := &file.Formats
		fs.StringVar(&f.Null, "fmt-null", f.Null, "Text for NULL values")
		fs.StringVar(&f.BoolTrue, "fmt-bool-true", f.BoolTrue, "Text for true")
		fs.StringVar(&f.BoolFalse, "fmt-bool-false", f.BoolFalse, "Text for false")
		fs.StringVar(&f.Date, "fmt-date", f.Date, "Go layout for DATE values")
		fs.StringVar(&f.Time, "fmt-time", f.Time, "Go layout for TIME values")
		fs.StringVar(&f.Timestamp, "fmt-timestamp", f.Timestamp, "Go layout for TIMESTAMP values")
		fs.StringVar(&f.Float, "fmt-float", f.Float, "fmt verb for floating point values, e.g. %.2f")

		fs.StringVar(&job.Report.UploadS3, "upload-s3", job.Report.UploadS3, "Upload the output file to s3://bucket/key")
		fs.StringVar(&job.Report.S3.Endpoint, "s3-endpoint", job.Report.S3.Endpoint, "S3-compatible endpoint URL")
		fs.StringVar(&job.Report.S3.Region, "s3-region", job.Report.S3.Region, "S3 region")
	}

	// Reporting
	rep := &job.Report
	fs.StringVar(&rep.Redis.Address, "result-redis-addr", rep.Redis.Address, "Publish the run result to this Redis")
	fs.StringVar(&rep.Redis.Name, "result-name", rep.Redis.Name, "Run name for the published result")
	fs.StringVar(&rep.Pushgateway, "metrics-pushgateway", rep.Pushgateway, "Prometheus Pushgateway URL")
	fs.StringVar(&rep.AuditFile, "audit-file", rep.AuditFile, "Append audit entries to this file")
}

// parseJob parses args of command. With -config the file is loaded first
// and the arguments are parsed again on top of it.
func parseJob(command string, args []string, output io.Writer) (*JobConfig, Options, error) {
	job := &JobConfig{}
	var opts Options

	fs := newFlagSet(command, job, &opts, output)
	if err := fs.Parse(args); err != nil {
		return nil, opts, err
	}
	if fs.NArg() > 0 {
		return nil, opts, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opts.Config == "" {
		return job, opts, nil
	}

	loaded, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, opts, err
	}
	job = loaded
	fs = newFlagSet(command, job, &opts, output)
	if err := fs.Parse(args); err != nil {
		return nil, opts, err
	}
	return job, opts, nil
}

func newFlagSet(command string, job *JobConfig, opts *Options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(output)
	bindFlags(fs, command, job, opts)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: sqlcp %s [options]\n\nOptions:\n", command)
		fs.PrintDefaults()
	}
	return fs
}

// isHelp reports whether err is the result of -help / -h
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
