package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DetectType определяет тип СУБД по строке подключения.
// Префикс "jdbc:" допускается и игнорируется.
func DetectType(dsn string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(dsn))
	s = strings.TrimPrefix(s, "jdbc:")

	switch {
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(s, "sqlserver://"), strings.HasPrefix(s, "mssql://"):
		return "mssql", nil
	case strings.HasPrefix(s, "mysql://"), strings.Contains(s, "@tcp("), strings.HasPrefix(s, "tcp("):
		return "mysql", nil
	case strings.HasPrefix(s, "file:"), s == ":memory:",
		strings.HasSuffix(s, ".db"), strings.HasSuffix(s, ".sqlite"), strings.HasSuffix(s, ".sqlite3"):
		return "sqlite", nil
	}
	return "", fmt.Errorf("cannot detect database type from DSN %q", MaskDSN(dsn))
}

// WithCredentials подставляет cfg.User/cfg.Password в строку подключения.
// Учетные данные, уже заданные в DSN, заменяются только непустыми значениями.
func WithCredentials(cfg Config) (string, error) {
	dsn := strings.TrimPrefix(cfg.DSN, "jdbc:")
	if cfg.Type == "mysql" {
		dsn = strings.TrimPrefix(dsn, "mysql://")
	}
	if cfg.User == "" && cfg.Password == "" {
		return dsn, nil
	}

	switch cfg.Type {
	case "sqlite":
		return dsn, nil

	case "mysql":
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
		}
		if cfg.User != "" {
			mc.User = cfg.User
		}
		if cfg.Password != "" {
			mc.Passwd = cfg.Password
		}
		return mc.FormatDSN(), nil

	case "postgres", "mssql":
		if !strings.Contains(dsn, "://") {
			// keyword/value форма: host=... dbname=...
			parts := []string{dsn}
			if cfg.User != "" {
				parts = append(parts, "user="+quoteKV(cfg.User))
			}
			if cfg.Password != "" {
				parts = append(parts, "password="+quoteKV(cfg.Password))
			}
			return strings.TrimSpace(strings.Join(parts, " ")), nil
		}

		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s DSN: %w", cfg.Type, err)
		}
		user, pass := "", ""
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
		}
		if cfg.User != "" {
			user = cfg.User
		}
		if cfg.Password != "" {
			pass = cfg.Password
		}
		u.User = url.UserPassword(user, pass)
		return u.String(), nil
	}

	return dsn, nil
}

func quoteKV(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// MaskDSN скрывает пароль в строке подключения для вывода в лог
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			return u.String()
		}
		return dsn
	}
	if mc, err := mysql.ParseDSN(dsn); err == nil && mc.Passwd != "" {
		mc.Passwd = "xxxxx"
		return mc.FormatDSN()
	}
	return dsn
}
