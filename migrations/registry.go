package migrations

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	payments "github.com/goliatone/go-payments"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const rootPath = "data/sql/migrations"

// Schema is the payments migration tree for one dialect. Postgres files live
// at the root, sqlite files under sqlite/.
type Schema struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

// NormalizeDialect maps driver names to the dialect keys used here. Unknown
// names come back trimmed and lowercased.
func NormalizeDialect(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "postgres", "postgresql", "pg":
		return DialectPostgres
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// Filesystems returns the schema for every supported dialect. With no source
// the embedded payments migrations are used.
func Filesystems(sources ...fs.FS) ([]Schema, error) {
	root := payments.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}
	base, basePath, err := migrationsRoot(root)
	if err != nil {
		return nil, err
	}

	postgres, err := loadSchema(base, DialectPostgres, basePath, ".")
	if err != nil {
		return nil, err
	}
	sqlite, err := loadSchema(base, DialectSQLite, basePath, "sqlite")
	if err != nil {
		return nil, err
	}
	return []Schema{postgres, sqlite}, nil
}

// ForDialect returns the embedded schema matching a dialect or driver name.
func ForDialect(dialect string) (Schema, error) {
	want := NormalizeDialect(dialect)
	schemas, err := Filesystems()
	if err != nil {
		return Schema{}, err
	}
	for _, schema := range schemas {
		if schema.Dialect == want {
			return schema, nil
		}
	}
	return Schema{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
}

func loadSchema(base fs.FS, dialect string, basePath string, dir string) (Schema, error) {
	fsys := base
	schemaPath := basePath
	if dir != "." {
		sub, err := fs.Sub(base, dir)
		if err != nil {
			return Schema{}, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
		}
		fsys = sub
		schemaPath = path.Join(basePath, dir)
	}

	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return Schema{}, fmt.Errorf("migrations: glob %s %s: %w", dialect, schemaPath, err)
	}
	if len(ups) == 0 {
		return Schema{}, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", dialect, schemaPath)
	}

	versions := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, ".up.sql")
		if _, err := fs.Stat(fsys, version+".down.sql"); err != nil {
			return Schema{}, fmt.Errorf("migrations: %s migration %s has no down file", dialect, version)
		}
		versions = append(versions, version)
	}
	sort.Strings(versions)

	return Schema{
		Dialect:  dialect,
		Path:     schemaPath,
		FS:       fsys,
		Versions: versions,
	}, nil
}

// migrationsRoot accepts either the module embed (with data/sql/migrations)
// or a filesystem already rooted at the postgres files.
func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	if _, err := fs.Stat(root, rootPath); err == nil {
		sub, subErr := fs.Sub(root, rootPath)
		if subErr != nil {
			return nil, "", fmt.Errorf("migrations: resolve %s: %w", rootPath, subErr)
		}
		return sub, rootPath, nil
	}
	if matches, err := fs.Glob(root, "*.up.sql"); err == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}
