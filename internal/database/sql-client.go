package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"myobclient/entity"
	"myobclient/internal/config"
	"myobclient/internal/lib/sl"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

const skuMapTable = "myob_sku_map"

// MySql stores the SKU to MYOB item map: manual overrides plus remembered lookups.
type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
	log        *slog.Logger
}

func NewSQLClient(conf *config.Config, log *slog.Logger) (*MySql, error) {
	if !conf.SQL.Enabled {
		return nil, fmt.Errorf("SQL client is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.SQL.UserName, conf.SQL.Password, conf.SQL.HostName, conf.SQL.Port, conf.SQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try ping three times with 30 seconds interval; wait for database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	sdb := newMySql(db, conf.SQL.Prefix, log)

	if err = sdb.createSkuMapTable(); err != nil {
		return nil, err
	}

	return sdb, nil
}

func newMySql(db *sql.DB, prefix string, log *slog.Logger) *MySql {
	return &MySql{
		db:         db,
		prefix:     prefix,
		statements: make(map[string]*sql.Stmt),
		log:        log.With(sl.Module("mysql")),
	}
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// Stats returns database info only if there are connections inUse
func (s *MySql) Stats() string {
	stats := s.db.Stats()
	if stats.InUse > 0 {
		return fmt.Sprintf("open: %d, inuse: %d, idle: %d, stmts: %d",
			stats.OpenConnections,
			stats.InUse,
			stats.Idle,
			len(s.statements))
	}
	return ""
}

func (s *MySql) table() string {
	return s.prefix + skuMapTable
}

func (s *MySql) createSkuMapTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		sku VARCHAR(64) NOT NULL,
		item_uid CHAR(36) NOT NULL,
		item_name VARCHAR(255) NOT NULL DEFAULT '',
		tax_code_uid CHAR(36) NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (sku)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, s.table())

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table(), err)
	}
	return nil
}

// GetItemBySku returns nil without error when the SKU is not mapped.
func (s *MySql) GetItemBySku(sku string) (*entity.ItemRef, error) {
	stmt, err := s.stmtSelectSku()
	if err != nil {
		return nil, err
	}

	ref := entity.ItemRef{Sku: sku}
	err = stmt.QueryRow(normalizeSku(sku)).Scan(&ref.ItemUID, &ref.Name, &ref.TaxCodeUID, &ref.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query sku %q: %w", sku, err)
	}
	return &ref, nil
}

func (s *MySql) SaveItem(ref *entity.ItemRef) error {
	if ref == nil || ref.Sku == "" || ref.ItemUID == "" {
		return fmt.Errorf("sku and item uid are required")
	}

	stmt, err := s.stmtUpsertSku()
	if err != nil {
		return err
	}

	_, err = stmt.Exec(normalizeSku(ref.Sku), ref.ItemUID, ref.Name, ref.TaxCodeUID, time.Now())
	if err != nil {
		return fmt.Errorf("save sku %q: %w", ref.Sku, err)
	}
	return nil
}

func (s *MySql) DeleteSku(sku string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE sku = ?", s.table())
	if _, err := s.db.Exec(query, normalizeSku(sku)); err != nil {
		return fmt.Errorf("delete sku %q: %w", sku, err)
	}
	return nil
}

// normalizeSku makes lookups case-insensitive; MYOB item numbers are.
func normalizeSku(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
