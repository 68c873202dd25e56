// Package assets embeds the files the server ships with: the game page and
// the per-dialect SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed index.html sql
var FS embed.FS

// Page returns the game page template.
func Page() (string, error) {
	b, err := FS.ReadFile("index.html")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Migrations returns the migration directory for a dialect ("sqlite" or "postgres").
func Migrations(dialect string) (fs.FS, error) {
	return fs.Sub(FS, "sql/"+dialect)
}
