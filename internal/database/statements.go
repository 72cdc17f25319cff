package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectSku() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT
			item_uid,
			item_name,
			tax_code_uid,
			updated_at
		 FROM %s
		 WHERE sku = ?
		 LIMIT 1`,
		s.table(),
	)
	return s.prepareStmt("selectSku", query)
}

func (s *MySql) stmtUpsertSku() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (sku, item_uid, item_name, tax_code_uid, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
			item_uid = VALUES(item_uid),
			item_name = VALUES(item_name),
			tax_code_uid = VALUES(tax_code_uid),
			updated_at = VALUES(updated_at)`,
		s.table(),
	)
	return s.prepareStmt("upsertSku", query)
}
