package export

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/authorworks/internal/schema"
)

// MySQLConfig holds connection parameters for the MySQL target.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the driver connection string. utf8mb4 is required for
// non-Latin author names.
func (c MySQLConfig) DSN(timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	cfg.InterpolateParams = true
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout
	return cfg.FormatDSN()
}

// MySQL exports to a MySQL database. The relation table is InnoDB with
// enforced foreign keys, so FOREIGN_KEY_CHECKS is switched off around the
// drops of a replace and switched back on before anything is written.
type MySQL struct {
	Config  MySQLConfig
	Options Options
}

// NewMySQL returns a MySQL exporter.
func NewMySQL(cfg MySQLConfig, opts Options) *MySQL {
	return &MySQL{Config: cfg, Options: opts}
}

// Target implements Exporter.
func (e *MySQL) Target() string { return "mysql" }

// Export implements Exporter.
func (e *MySQL) Export(ctx context.Context, src Source) (*Report, error) {
	opts := e.Options.withDefaults()

	db, err := sqlx.Open("mysql", e.Config.DSN(opts.StatementTimeout))
	if err != nil {
		return nil, markFatal(fmt.Errorf("open mysql: %w", err))
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, markFatal(fmt.Errorf("connect mysql: %w", err))
	}
	defer conn.Close()

	pingCtx, cancel := opts.withTimeout(ctx)
	err = conn.PingContext(pingCtx)
	cancel()
	if err != nil {
		return nil, markFatal(fmt.Errorf("ping mysql: %w", err))
	}

	sess := &connSession{conn: conn, d: mysqlDialect, opts: opts}
	rep, err := runExport(ctx, sess, mysqlDialect, schema.MySQL, opts, src)
	rep.Artifact = e.Config.Database
	return rep, err
}
