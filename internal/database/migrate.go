package database

import (
	"cmp"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"feedhub/internal/middleware"
)

// Migration is one NNNNNN_name.up.sql file and its .down.sql counterpart.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var embeddedMigrations = sync.OnceValue(func() []Migration {
	set, err := LoadMigrations(migrationFS, "migrations")
	if err != nil {
		middleware.Logger.Error("embedded migrations are unusable", slog.String("error", err.Error()))
		return nil
	}
	return set
})

// LoadMigrations reads every up/down pair under dir, sorted by version. A
// malformed file name, a missing down script or a repeated version is an error.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	set := make([]Migration, 0, len(ups))
	seen := make(map[int]string, len(ups))
	for _, up := range ups {
		base := strings.TrimSuffix(path.Base(up), ".up.sql")
		num, name, ok := strings.Cut(base, "_")
		version, convErr := strconv.Atoi(num)
		if !ok || name == "" || convErr != nil {
			return nil, fmt.Errorf("migration %s: want NNNNNN_name.up.sql", path.Base(up))
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, prev, base)
		}
		seen[version] = base

		upSQL, err := fs.ReadFile(fsys, up)
		if err != nil {
			return nil, err
		}
		downSQL, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", base, err)
		}
		set = append(set, Migration{Version: version, Name: name, UpScript: string(upSQL), DownScript: string(downSQL)})
	}

	slices.SortFunc(set, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return set, nil
}

// GetMigrations returns the migrations compiled into the binary.
func GetMigrations() []Migration {
	return embeddedMigrations()
}

// GetMigrationByVersion returns the embedded migration with that version, or nil.
func GetMigrationByVersion(version int) *Migration {
	set := embeddedMigrations()
	i := slices.IndexFunc(set, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return nil
	}
	m := set[i]
	return &m
}
