package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

// clock is swapped in tests.
var clock = func() time.Time { return time.Now().UTC() }

var migrationTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}} ({{.Created}})

-- +goose Up
-- +goose StatementBegin
SELECT 'up {{.Name}}';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down {{.Name}}';
-- +goose StatementEnd
`))

// migrationSlug lowercases name and joins its alphanumeric runs with "_".
func migrationSlug(name string) string {
	return strings.Trim(nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql. A migration
// with the same name suffix already in dir is rejected.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := migrationSlug(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := filepath.Glob(filepath.Join(dir, "*_"+safe+".sql"))
	if err != nil {
		return "", fmt.Errorf("scan %q: %w", dir, err)
	}
	for _, path := range existing {
		if sqlFileRe.MatchString(filepath.Base(path)) {
			return "", fmt.Errorf("migration %q already exists as %s", safe, filepath.Base(path))
		}
	}

	now := clock()
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), safe))
	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", fullpath, err)
	}
	defer f.Close()

	if err := migrationTemplate.Execute(f, map[string]string{
		"Name":    safe,
		"Created": now.Format(time.RFC3339),
	}); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}
