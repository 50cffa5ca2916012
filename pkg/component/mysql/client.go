// Package mysql wraps a GORM MySQL connection with pool configuration.
package mysql

import (
	"context"
	"fmt"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	mysqlopts "github.com/campus-io/study-buddy/pkg/options/mysql"
)

// Client wraps a gorm.DB opened against MySQL.
type Client struct {
	db   *gorm.DB
	opts *mysqlopts.Options
}

// New creates a MySQL client and verifies the connection.
func New(opts *mysqlopts.Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a MySQL client, using ctx for the initial ping.
func NewWithContext(ctx context.Context, opts *mysqlopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mysql options is nil")
	}

	db, err := gorm.Open(mysqldriver.Open(BuildDSN(opts)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if opts.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	}
	if opts.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	}
	if opts.MaxConnectionLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	return &Client{db: db, opts: opts}, nil
}

// DB returns the underlying gorm.DB.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Ping checks that the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BuildDSN renders the MySQL DSN for the given options.
func BuildDSN(opts *mysqlopts.Options) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s",
		opts.Username, opts.Password, opts.Host, opts.Port, opts.Database)
}

func logLevel(level int) gormlogger.LogLevel {
	switch level {
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}
