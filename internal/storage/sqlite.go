// Package storage handles database connections, schema migrations, and
// data operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Driver sqlite

	"github.com/sourcequery/spyglass/internal/models"
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool
// parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

const nodeColumns = `ip, port, country_code,
	server_name, map_name, folder, game_name, game_version, server_os, keywords,
	app_id, players, max_players, bots, vac, password,
	checks, first_seen, last_seen`

// UpsertNode inserts a new node or updates an existing one keyed on
// (ip, port). Query-snapshot fields are only overwritten when the new
// snapshot actually carries data, so a failed re-check does not erase the
// last good one.
func (r *Repository) UpsertNode(n models.Node) error {
	query := `
	INSERT INTO nodes (` + nodeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(ip, port) DO UPDATE SET
		checks = checks + 1,
		last_seen = excluded.last_seen,

		-- Update country if resolved and not blank
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE nodes.country_code END,

		-- Update snapshot fields only when the new query succeeded
		server_name  = CASE WHEN excluded.server_name != '' THEN excluded.server_name ELSE nodes.server_name END,
		map_name     = CASE WHEN excluded.server_name != '' THEN excluded.map_name ELSE nodes.map_name END,
		folder       = CASE WHEN excluded.server_name != '' THEN excluded.folder ELSE nodes.folder END,
		game_name    = CASE WHEN excluded.server_name != '' THEN excluded.game_name ELSE nodes.game_name END,
		game_version = CASE WHEN excluded.server_name != '' THEN excluded.game_version ELSE nodes.game_version END,
		server_os    = CASE WHEN excluded.server_name != '' THEN excluded.server_os ELSE nodes.server_os END,
		keywords     = CASE WHEN excluded.server_name != '' THEN excluded.keywords ELSE nodes.keywords END,
		app_id       = CASE WHEN excluded.server_name != '' THEN excluded.app_id ELSE nodes.app_id END,
		players      = CASE WHEN excluded.server_name != '' THEN excluded.players ELSE nodes.players END,
		max_players  = CASE WHEN excluded.server_name != '' THEN excluded.max_players ELSE nodes.max_players END,
		bots         = CASE WHEN excluded.server_name != '' THEN excluded.bots ELSE nodes.bots END,
		vac          = CASE WHEN excluded.server_name != '' THEN excluded.vac ELSE nodes.vac END,
		password     = CASE WHEN excluded.server_name != '' THEN excluded.password ELSE nodes.password END;
	`

	_, err := r.db.Exec(query,
		n.IP, n.Port, n.CountryCode,
		n.ServerName, n.MapName, n.Folder, n.GameName, n.GameVersion, n.ServerOS, n.Keywords,
		n.AppID, n.Players, n.MaxPlayers, n.Bots, n.VAC, n.Password,
		n.FirstSeen, n.LastSeen,
	)

	return err
}

// scanNode reads one row in nodeColumns order.
func scanNode(row interface{ Scan(...any) error }) (models.Node, error) {
	var n models.Node
	err := row.Scan(
		&n.IP, &n.Port, &n.CountryCode,
		&n.ServerName, &n.MapName, &n.Folder, &n.GameName, &n.GameVersion, &n.ServerOS, &n.Keywords,
		&n.AppID, &n.Players, &n.MaxPlayers, &n.Bots, &n.VAC, &n.Password,
		&n.Checks, &n.FirstSeen, &n.LastSeen,
	)
	return n, err
}

// GetNodes retrieves all nodes, most recently seen first.
func (r *Repository) GetNodes() ([]models.Node, error) {
	rows, err := r.db.Query(`SELECT ` + nodeColumns + ` FROM nodes ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var nodes []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

// GetNode retrieves a specific node by its (ip, port) identifier.
// A missing node yields (nil, nil).
func (r *Repository) GetNode(ip string, port int) (*models.Node, error) {
	row := r.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE ip = ? AND port = ?`, ip, port)

	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// DeleteNode removes a specific node identified by ip and port.
func (r *Repository) DeleteNode(ip string, port int) error {
	_, err := r.db.Exec(`DELETE FROM nodes WHERE ip = ? AND port = ?`, ip, port)
	return err
}

// DeleteEmptyNodes removes records that never produced query data
// (server_name is empty). If folder is not empty, deletion is restricted
// to nodes of that game folder.
func (r *Repository) DeleteEmptyNodes(folder string) (int64, error) {
	query := `DELETE FROM nodes WHERE (server_name IS NULL OR server_name = '')`
	var args []any

	if folder != "" {
		query += ` AND folder = ?`
		args = append(args, folder)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetNodesSubset retrieves nodes for maintenance. If onlyEmpty is true,
// only nodes without query data are returned; folder filters by game
// folder when not empty.
func (r *Repository) GetNodesSubset(folder string, onlyEmpty bool) ([]models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE 1=1`
	var args []any

	if folder != "" {
		query += " AND folder = ?"
		args = append(args, folder)
	}
	if onlyEmpty {
		query += " AND (server_name IS NULL OR server_name = '')"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var nodes []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}
