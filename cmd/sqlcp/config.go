package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/sqlcp/pkg/adapters"
	"github.com/ruslano69/sqlcp/pkg/pipeline"
	"github.com/ruslano69/sqlcp/pkg/resultlog"
	"github.com/ruslano69/sqlcp/pkg/upload"
)

// JobConfig is the YAML job file. The same structure backs both commands:
// db2db uses Target, db2file uses File.
type JobConfig struct {
	Source  pipeline.SourceConfig  `yaml:"source"`
	Target  pipeline.TargetConfig  `yaml:"target,omitempty"`
	File    pipeline.FileConfig    `yaml:"file,omitempty"`
	Runtime pipeline.RuntimeConfig `yaml:"runtime,omitempty"`
	Report  ReportConfig           `yaml:"report,omitempty"`
}

// ReportConfig contains post-run reporting settings
type ReportConfig struct {
	Redis       resultlog.Config `yaml:"redis,omitempty"`       // Result publication
	Pushgateway string           `yaml:"pushgateway,omitempty"` // Prometheus Pushgateway URL
	MetricsJob  string           `yaml:"metrics_job,omitempty"` // Pushgateway job name
	AuditFile   string           `yaml:"audit_file,omitempty"`  // JSON-lines audit trail
	UploadS3    string           `yaml:"upload_s3,omitempty"`   // s3://bucket/key for the output file
	S3          upload.Config    `yaml:"s3,omitempty"`
}

// DBToDB returns the pipeline configuration for the db2db command
func (j *JobConfig) DBToDB() pipeline.DBToDBConfig {
	return pipeline.DBToDBConfig{Source: j.Source, Target: j.Target, Runtime: j.Runtime}
}

// DBToFile returns the pipeline configuration for the db2file command
func (j *JobConfig) DBToFile() pipeline.DBToFileConfig {
	return pipeline.DBToFileConfig{Source: j.Source, File: j.File, Runtime: j.Runtime}
}

// LoadConfig loads a job from a YAML file
func LoadConfig(filename string) (*JobConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config JobConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves a job to a YAML file
func SaveConfig(filename string, config *JobConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

const maskedPassword = "xxxxx"

// Masked returns a copy with passwords hidden, for -print-params-only
func (j JobConfig) Masked() JobConfig {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return maskedPassword
	}
	j.Source.Password = mask(j.Source.Password)
	j.Source.DSN = adapters.MaskDSN(j.Source.DSN)
	j.Target.Password = mask(j.Target.Password)
	j.Target.DSN = adapters.MaskDSN(j.Target.DSN)
	j.Report.Redis.Password = mask(j.Report.Redis.Password)
	j.Report.S3.SecretKey = mask(j.Report.S3.SecretKey)
	return j
}
