package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlcp/pkg/audit"
	"github.com/ruslano69/sqlcp/pkg/metrics"
	"github.com/ruslano69/sqlcp/pkg/pipeline"
	"github.com/ruslano69/sqlcp/pkg/resultlog"
	"github.com/ruslano69/sqlcp/pkg/upload"
)

// reporters runs the optional post-run steps configured in ReportConfig.
// Upload failures fail the command; publication failures are only logged.
type reporters struct {
	audit     *audit.Logger
	publisher *resultlog.RedisPublisher
	pusher    *metrics.Pusher
	uploader  *upload.Uploader
	s3URL     string
	log       zerolog.Logger
}

func newReporters(ctx context.Context, job *JobConfig, logger zerolog.Logger) (*reporters, error) {
	rc := job.Report
	r := &reporters{s3URL: rc.UploadS3, log: logger}

	var appenders []audit.Appender
	if rc.AuditFile != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{FilePath: rc.AuditFile})
		if err != nil {
			return nil, err
		}
		appenders = append(appenders, fa)
	}
	r.audit = audit.NewLogger(logger, appenders...)

	if rc.Redis.Address != "" {
		if rc.Redis.Name == "" {
			rc.Redis.Name = "default"
		}
		if err := rc.Redis.Validate(); err != nil {
			r.Close()
			return nil, err
		}
		r.publisher = resultlog.NewRedisPublisher(rc.Redis)
	}

	if rc.Pushgateway != "" {
		p, err := metrics.NewPusher(rc.MetricsJob, rc.Pushgateway)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.pusher = p
	}

	if rc.UploadS3 != "" {
		if job.File.Name == "" {
			r.Close()
			return nil, fmt.Errorf("-upload-s3 requires -dest-file")
		}
		if _, err := upload.ParseS3URL(rc.UploadS3, job.File.Name); err != nil {
			r.Close()
			return nil, err
		}
		u, err := upload.NewUploader(ctx, rc.S3)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.uploader = u
	}

	return r, nil
}

// Finish uploads the output file of a successful export, then publishes the
// run result everywhere configured.
func (r *reporters) Finish(ctx context.Context, sum *pipeline.Summary) error {
	var uploadErr error
	if r.uploader != nil && sum.Success() {
		uploadErr = r.upload(ctx, sum.Target)
	}

	r.audit.RunFinished(ctx, sum)

	if r.publisher != nil {
		err := r.publisher.Publish(ctx, sum)
		if err != nil {
			r.log.Warn().Err(err).Msg("failed to publish run result")
		}
		r.audit.Step(ctx, audit.OpPublish, resultlog.StateKey(r.publisher.Name()), err)
	}

	if r.pusher != nil {
		r.pusher.Record(sum)
		if err := r.pusher.Push(); err != nil {
			r.log.Warn().Err(err).Msg("failed to push metrics")
		}
	}

	return uploadErr
}

func (r *reporters) upload(ctx context.Context, fileName string) error {
	loc, err := upload.ParseS3URL(r.s3URL, fileName)
	if err != nil {
		return err
	}

	r.log.Info().Str("file", fileName).Str("to", loc.String()).Msg("uploading output")
	err = r.uploader.UploadFile(ctx, fileName, loc)
	r.audit.Step(ctx, audit.OpUpload, loc.String(), err)
	if err != nil {
		return err
	}
	r.log.Info().Str("to", loc.String()).Msg("upload done")
	return nil
}

func (r *reporters) Close() error {
	var errs []error
	if r.publisher != nil {
		errs = append(errs, r.publisher.Close())
	}
	if r.audit != nil {
		errs = append(errs, r.audit.Close())
	}
	return errors.Join(errs...)
}
