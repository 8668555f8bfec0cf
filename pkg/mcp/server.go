package mcp

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	mdtrack "github.com/mdtracker/mdtrack/pkg"
	pkgdb "github.com/mdtracker/mdtrack/pkg/db"
	"github.com/mdtracker/mdtrack/pkg/utils"
)

type TrackerMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	DbPath    string
}

// NewTrackerMCPServer spins up an MCP server backed by the SQLite database at dbPath.
func NewTrackerMCPServer(dbPath string) (*TrackerMCPServer, error) {
	if dbPath == "" {
		dbPath = utils.GetDefaultDBPathOnly()
	}

	// Expand ~ to home directory if present
	if strings.HasPrefix(dbPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			dbPath = filepath.Join(homeDir, dbPath[2:])
		}
	}

	// Ensure parent directory exists
	dbDir := filepath.Dir(dbPath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	// Create base MCP server.
	s := server.NewMCPServer(
		"Match Tracker MCP Server",
		mdtrack.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	// Open database (WAL + FULL).
	dbConn, err := pkgdb.OpenDBConnection(dbPath, true, "FULL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Automatically initialize or migrate the database schema.
	if err := pkgdb.UpgradeDB(dbConn, dbPath, pkgdb.TargetSchemaVersion); err != nil {
		// Attempt to close the DB connection if upgrade fails.
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", dbPath, err)
	}

	return &TrackerMCPServer{
		mcpServer: s,
		db:        dbConn,
		DbPath:    dbPath,
	}, nil
}

// RegisterAllTools attaches the full tool surface to the server.
func (s *TrackerMCPServer) RegisterAllTools() {
	RegisterPingTool(s.mcpServer)
	RegisterProjectTools(s.mcpServer, s.db)
	RegisterDeckTools(s.mcpServer, s.db)
	RegisterTagTools(s.mcpServer, s.db)
	RegisterMatchTools(s.mcpServer, s.db)
	RegisterStatsTools(s.mcpServer, s.db)
	RegisterBackupTools(s.mcpServer, s.db)
}

// Start runs the stdio event loop. Make sure to register tools beforehand.
func (s *TrackerMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// DB returns the underlying *sql.DB.
func (s *TrackerMCPServer) DB() *sql.DB {
	return s.db
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *TrackerMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close cleans up allocated resources.
func (s *TrackerMCPServer) Close() error {
	if s.db != nil {
		// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
		_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: WAL checkpoint failed during close: %v\n", err)
		}
		return s.db.Close()
	}
	return nil
}
