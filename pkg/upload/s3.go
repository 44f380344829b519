// Package upload - загрузка готового файла выгрузки в S3-совместимое хранилище
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidURL - адрес объекта не в форме s3://bucket/key
var ErrInvalidURL = errors.New("invalid s3 url")

// Location - бакет и ключ объекта
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// ParseS3URL разбирает s3://bucket/key.
// Ключ, заканчивающийся на "/", дополняется именем файла fileName
func ParseS3URL(raw, fileName string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Location{}, fmt.Errorf("%w %q: expected s3://bucket/key", ErrInvalidURL, raw)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		if fileName == "" {
			return Location{}, fmt.Errorf("%w %q: object key is empty", ErrInvalidURL, raw)
		}
		key += path.Base(fileName)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

// Config - параметры подключения к хранилищу.
// Пустые ключи доступа означают стандартную цепочку AWS (env, профиль, IMDS)
type Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PartSize  int64  `yaml:"part_size,omitempty"`
}

// Uploader - загрузчик файлов через s3 manager (multipart для больших файлов)
type Uploader struct {
	uploader *manager.Uploader
}

// NewUploader создает клиент S3
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
	})
	return &Uploader{uploader: uploader}, nil
}

// UploadFile загружает локальный файл в loc
func (u *Uploader) UploadFile(ctx context.Context, fileName string, loc Location) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}
	defer f.Close()

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        f,
		ContentType: aws.String(contentType(fileName)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", fileName, loc, err)
	}
	return nil
}

func contentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".zst":
		return "application/zstd"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}
