// Command sqlcp copies the result of a query from one database to another
// table, or exports it to a delimited text or xlsx file.
//
// Usage:
//
//	sqlcp db2db   -src-dsn ... -src-data ... -dest-dsn ... -dest-target ...
//	sqlcp db2file -src-dsn ... -src-data ... [-dest-file out.csv]
//
// Exit status is 0 when every stage succeeded and 1 otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/audit"
	"github.com/ruslano69/sqlcp/pkg/pipeline"

	// Registered database adapters
	_ "github.com/ruslano69/sqlcp/pkg/adapters/mssql"
	_ "github.com/ruslano69/sqlcp/pkg/adapters/mysql"
	_ "github.com/ruslano69/sqlcp/pkg/adapters/postgres"
	_ "github.com/ruslano69/sqlcp/pkg/adapters/sqlite"
)

const (
	exitOK     = 0
	exitFailed = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		PrintHelp(stderr)
		return exitFailed
	}

	command := args[0]
	switch command {
	case "-version", "--version", "version":
		PrintVersion(stdout)
		return exitOK
	case "-help", "--help", "-h", "help":
		PrintHelp(stdout)
		return exitOK
	case cmdDBToDB, cmdDBToFile:
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		PrintHelp(stderr)
		return exitFailed
	}

	job, opts, err := parseJob(command, args[1:], stderr)
	if err != nil {
		if isHelp(err) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}

	if opts.PrintParamsOnly {
		return printParams(stdout, stderr, command, job)
	}

	logger := newLogger(stderr)
	return execute(ctx, command, job, logger, stdout, stderr)
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}).
		With().Timestamp().Logger()
}

// printParams prints the effective job with defaults applied and passwords masked
func printParams(stdout, stderr io.Writer, command string, job *JobConfig) int {
	masked := job.Masked()
	if command == cmdDBToDB {
		cfg := masked.DBToDB()
		cfg.SetDefaults()
		masked.Source, masked.Target, masked.File = cfg.Source, cfg.Target, pipeline.FileConfig{}
	} else {
		cfg := masked.DBToFile()
		cfg.SetDefaults()
		masked.Source, masked.File, masked.Target = cfg.Source, cfg.File, pipeline.TargetConfig{}
	}

	data, err := yaml.Marshal(&masked)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}
	fmt.Fprintf(stdout, "# sqlcp %s\n%s", command, data)
	return exitOK
}

func execute(ctx context.Context, command string, job *JobConfig, logger zerolog.Logger, stdout, stderr io.Writer) int {
	rep, err := newReporters(ctx, job, logger)
	if err != nil {
		logger.Error().Err(err).Msg("reporting setup failed")
		return exitFailed
	}
	defer rep.Close()

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithStdout(stdout),
		pipeline.WithSummaryWriter(stderr),
	}

	var (
		sum    *pipeline.Summary
		runErr error
	)
	switch command {
	case cmdDBToDB:
		cfg := job.DBToDB()
		rep.audit.RunStarted(ctx, pipeline.ModeDBToDB,
			adapters.MaskDSN(cfg.Source.DSN), adapters.MaskDSN(cfg.Target.DSN), cfg.Target.Target)
		sum, runErr = pipeline.RunDBToDB(ctx, cfg, opts...)
	case cmdDBToFile:
		cfg := job.DBToFile()
		rep.audit.RunStarted(ctx, pipeline.ModeDBToFile,
			adapters.MaskDSN(cfg.Source.DSN), cfg.File.Name, cfg.Source.Data)
		sum, runErr = pipeline.RunDBToFile(ctx, cfg, opts...)
	}

	if sum == nil {
		// configuration rejected before the run started
		logger.Error().Err(runErr).Msg("copy not started")
		rep.audit.Log(ctx, audit.NewEntry(audit.OperationFor(command), audit.StatusFailure).WithError(runErr))
		return exitFailed
	}

	if err := rep.Finish(ctx, sum); err != nil {
		logger.Error().Err(err).Msg("post-run step failed")
		return exitFailed
	}
	if runErr != nil {
		return exitFailed
	}
	return exitOK
}
