package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	go_ora "github.com/sijms/go-ora/v2"
)

const (
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	// Name is the database name for postgres and the service name for oracle
	Name    string
	SSLMode string
	// WalletPath points go-ora at an Oracle wallet directory for TLS connections
	WalletPath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Flavor maps a driver name to its sqlbuilder dialect
func Flavor(driver string) (sqlbuilder.Flavor, error) {
	switch driver {
	case DriverPostgres, "":
		return sqlbuilder.PostgreSQL, nil
	case DriverOracle:
		return sqlbuilder.Oracle, nil
	}
	return sqlbuilder.DefaultFlavor, fmt.Errorf("unsupported database driver: %s", driver)
}

// DSN renders the connection string for the configured driver
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverPostgres, "":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   c.Host + ":" + c.Port,
			Path:   "/" + c.Name,
		}
		q := url.Values{}
		if c.SSLMode != "" {
			q.Set("sslmode", c.SSLMode)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	case DriverOracle:
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			return "", fmt.Errorf("invalid oracle port %q: %w", c.Port, err)
		}
		options := map[string]string{}
		if c.WalletPath != "" {
			options["WALLET"] = c.WalletPath
			options["SSL"] = "enable"
		}
		return go_ora.BuildUrl(c.Host, port, c.Name, c.User, c.Password, options), nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", c.Driver)
}

// Connect opens and pings a connection pool
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (DB, error) {
	flavor, err := Flavor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s at %s:%s: %w", driver, cfg.Host, cfg.Port, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.WithFields(map[string]any{
		"driver": driver,
		"host":   cfg.Host,
		"name":   cfg.Name,
	}).Info("Connected to record store")

	return NewDatabaseInstance(db, flavor, logger), nil
}
