// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace persists census pipeline state between CLI
// invocations: the parsed roster, each server's resolved candidates,
// and the operator's selections.
package workspace

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/preprint-census/pkg/types"
)

const dbFile = "census.db"

// Store manages the census workspace SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the workspace database at dir/census.db,
// creating the directory and schema as needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the workspace directory the store was opened on.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS servers (
			name TEXT PRIMARY KEY,
			issn_l TEXT,
			issn_print TEXT,
			issn_electronic TEXT,
			doi_prefixes TEXT,
			member_id TEXT,
			title_exact TEXT,
			title_variants TEXT,
			notes TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			server_name TEXT NOT NULL REFERENCES servers(name) ON DELETE CASCADE,
			strategy TEXT NOT NULL,
			id TEXT NOT NULL,
			label TEXT,
			estimate_total INTEGER NOT NULL,
			venue_meta TEXT,
			member_meta TEXT,
			position INTEGER NOT NULL,
			PRIMARY KEY (server_name, strategy, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_server ON candidates(server_name)`,
		`CREATE TABLE IF NOT EXISTS selections (
			server_name TEXT NOT NULL,
			strategy TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (server_name, strategy, id),
			FOREIGN KEY (server_name, strategy, id)
				REFERENCES candidates(server_name, strategy, id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRoster replaces the stored roster with servers, in order. Cascades
// wipe every candidate and selection, so a re-resolve starts clean.
func (s *Store) SaveRoster(ctx context.Context, servers []types.ServerInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM servers`); err != nil {
		return fmt.Errorf("clearing roster: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO servers (name, issn_l, issn_print, issn_electronic,
			doi_prefixes, member_id, title_exact, title_variants, notes, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, srv := range servers {
		_, err := stmt.ExecContext(ctx,
			srv.Name, srv.ISSNL, srv.ISSNPrint, srv.ISSNElectronic,
			joinList(srv.DOIPrefixes), srv.MemberID, srv.TitleExact,
			joinList(srv.TitleVariants), srv.Notes, i,
		)
		if err != nil {
			return fmt.Errorf("inserting server %q: %w", srv.Name, err)
		}
	}

	return tx.Commit()
}

// Servers returns the stored roster in roster order.
func (s *Store) Servers(ctx context.Context) ([]types.ServerInput, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, issn_l, issn_print, issn_electronic, doi_prefixes,
			member_id, title_exact, title_variants, notes
		 FROM servers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var servers []types.ServerInput
	for rows.Next() {
		var srv types.ServerInput
		var prefixes, variants string
		if err := rows.Scan(&srv.Name, &srv.ISSNL, &srv.ISSNPrint, &srv.ISSNElectronic,
			&prefixes, &srv.MemberID, &srv.TitleExact, &variants, &srv.Notes); err != nil {
			return nil, fmt.Errorf("scanning server row: %w", err)
		}
		srv.DOIPrefixes = splitList(prefixes)
		srv.TitleVariants = splitList(variants)
		servers = append(servers, srv)
	}
	return servers, rows.Err()
}

// Server returns one roster entry by name.
func (s *Store) Server(ctx context.Context, name string) (types.ServerInput, error) {
	var srv types.ServerInput
	var prefixes, variants string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, issn_l, issn_print, issn_electronic, doi_prefixes,
			member_id, title_exact, title_variants, notes
		 FROM servers WHERE name = ?`, name,
	).Scan(&srv.Name, &srv.ISSNL, &srv.ISSNPrint, &srv.ISSNElectronic,
		&prefixes, &srv.MemberID, &srv.TitleExact, &variants, &srv.Notes)
	if err == sql.ErrNoRows {
		return types.ServerInput{}, fmt.Errorf("server %q is not in the roster", name)
	}
	if err != nil {
		return types.ServerInput{}, fmt.Errorf("querying server %q: %w", name, err)
	}
	srv.DOIPrefixes = splitList(prefixes)
	srv.TitleVariants = splitList(variants)
	return srv, nil
}

// SaveCandidates replaces one server's candidate list and clears its
// selections, which refer to the replaced rows.
func (s *Store) SaveCandidates(ctx context.Context, server string, cands []types.Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE server_name = ?`, server); err != nil {
		return fmt.Errorf("clearing candidates: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (server_name, strategy, id, label, estimate_total,
			venue_meta, member_meta, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range cands {
		_, err := stmt.ExecContext(ctx,
			server, string(c.Strategy), c.ID, c.Label, c.EstimateTotal,
			nullableText(c.VenueMeta), nullableText(c.MemberMeta), i,
		)
		if err != nil {
			return fmt.Errorf("inserting candidate %s: %w", c.Key(), err)
		}
	}

	return tx.Commit()
}

// Candidates returns one server's candidates in resolution order.
func (s *Store) Candidates(ctx context.Context, server string) ([]types.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, id, label, estimate_total, venue_meta, member_meta
		 FROM candidates WHERE server_name = ? ORDER BY position`, server)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

// Select marks one candidate as confirmed for server. Selecting a pair
// that is not among the server's candidates is an error; selecting an
// already-selected pair is a no-op.
func (s *Store) Select(ctx context.Context, server string, key types.SelectionKey) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM candidates WHERE server_name = ? AND strategy = ? AND id = ?`,
		server, string(key.Strategy), key.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking candidate: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("no candidate %s for server %q", key, server)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO selections (server_name, strategy, id, position)
		 SELECT ?, ?, ?, COALESCE(MAX(position)+1, 0) FROM selections WHERE server_name = ?`,
		server, string(key.Strategy), key.ID, server)
	if err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}
	return nil
}

// SelectAll selects every candidate of one server in resolution order
// and returns how many are now selected.
func (s *Store) SelectAll(ctx context.Context, server string) (int, error) {
	if _, err := s.Server(ctx, server); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO selections (server_name, strategy, id, position)
		 SELECT server_name, strategy, id, position FROM candidates WHERE server_name = ?`,
		server)
	if err != nil {
		return 0, fmt.Errorf("selecting all candidates: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SelectAllServers selects every candidate of every roster server and
// returns the total selection count.
func (s *Store) SelectAllServers(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO selections (server_name, strategy, id, position)
		 SELECT server_name, strategy, id, position FROM candidates`)
	if err != nil {
		return 0, fmt.Errorf("selecting all candidates: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearSelection removes every selection for one server.
func (s *Store) ClearSelection(ctx context.Context, server string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM selections WHERE server_name = ?`, server); err != nil {
		return fmt.Errorf("clearing selection: %w", err)
	}
	return nil
}

// ClearAllSelections removes every selection for every server.
func (s *Store) ClearAllSelections(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selections`); err != nil {
		return fmt.Errorf("clearing selections: %w", err)
	}
	return nil
}

// Selections returns one server's confirmed (strategy, id) pairs in
// selection order.
func (s *Store) Selections(ctx context.Context, server string) ([]types.SelectionKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, id FROM selections WHERE server_name = ? ORDER BY position`, server)
	if err != nil {
		return nil, fmt.Errorf("querying selections: %w", err)
	}
	defer rows.Close()

	var keys []types.SelectionKey
	for rows.Next() {
		var strategy, id string
		if err := rows.Scan(&strategy, &id); err != nil {
			return nil, fmt.Errorf("scanning selection row: %w", err)
		}
		keys = append(keys, types.SelectionKey{Strategy: types.Strategy(strategy), ID: id})
	}
	return keys, rows.Err()
}

// SelectedCandidates returns one server's confirmed candidates with
// their full resolution data, in selection order.
func (s *Store) SelectedCandidates(ctx context.Context, server string) ([]types.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.strategy, c.id, c.label, c.estimate_total, c.venue_meta, c.member_meta
		 FROM selections sel
		 JOIN candidates c ON c.server_name = sel.server_name
			AND c.strategy = sel.strategy AND c.id = sel.id
		 WHERE sel.server_name = ? ORDER BY sel.position`, server)
	if err != nil {
		return nil, fmt.Errorf("querying selected candidates: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func scanCandidates(rows *sql.Rows) ([]types.Candidate, error) {
	var cands []types.Candidate
	for rows.Next() {
		var (
			c          types.Candidate
			strategy   string
			venueMeta  sql.NullString
			memberMeta sql.NullString
		)
		if err := rows.Scan(&strategy, &c.ID, &c.Label, &c.EstimateTotal, &venueMeta, &memberMeta); err != nil {
			return nil, fmt.Errorf("scanning candidate row: %w", err)
		}
		c.Strategy = types.Strategy(strategy)
		if venueMeta.Valid && venueMeta.String != "" {
			c.VenueMeta = []byte(venueMeta.String)
		}
		if memberMeta.Valid && memberMeta.String != "" {
			c.MemberMeta = []byte(memberMeta.String)
		}
		cands = append(cands, c)
	}
	return cands, rows.Err()
}

func joinList(parts []string) string {
	return strings.Join(parts, ";")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nullableText(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
