package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one numbered pair of up/down SQL scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations []Migration

func init() {
	loaded, err := LoadMigrations(migrationFS, "migrations")
	if err != nil {
		panic(fmt.Sprintf("failed to register internal migrations: %v", err))
	}
	migrations = loaded
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from dir.
// Every up script needs a matching down script.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		prefix, label, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: invalid version: %w", name, err)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, other, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read up migration %s: %w", name, err)
		}
		downName := base + ".down.sql"
		down, err := fs.ReadFile(fsys, path.Join(dir, downName))
		if err != nil {
			return nil, fmt.Errorf("failed to read down migration %s: %w", downName, err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       label,
			UpScript:   string(up),
			DownScript: string(down),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the migration with the given version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
