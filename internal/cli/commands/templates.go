package commands

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// copyTemplate writes the files of an embedded template below targetDir.
// Files that exist are kept unless force is set.
func copyTemplate(templateName, targetDir string, force bool) error {
	root := path.Join("templates", templateName)

	return fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Embedded paths always use forward slashes
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if rel == "" {
			return nil // template root
		}

		// Handle special file renames
		targetPath := filepath.Join(targetDir, filepath.FromSlash(renameSpecialFiles(rel)))

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}

		// Keep files the user already has
		if !force {
			if _, err := os.Stat(targetPath); err == nil {
				return nil
			}
		}

		// Read and write file
		content, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}

		return os.WriteFile(targetPath, content, 0o600)
	})
}

// renameSpecialFiles maps stored names to their real ones. Dotfiles are
// stored without the dot so go:embed includes them.
func renameSpecialFiles(p string) string {
	// Rename "gitignore" to ".gitignore"
	dir, base := path.Split(p)
	switch base {
	case "gitignore":
		return dir + ".gitignore"
	default:
		return p
	}
}

// listTemplateFiles lists the files init will write, as relative paths.
func listTemplateFiles(templateName string) ([]string, error) {
	var files []string
	root := path.Join("templates", templateName)

	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
			files = append(files, renameSpecialFiles(rel))
		}
		return nil
	})

	return files, err
}

// groupTemplateFiles groups files by top-level directory for display.
func groupTemplateFiles(files []string) map[string][]string {
	groups := map[string][]string{
		"config": {},
		"macros": {},
		"src":    {},
	}

	// Anything outside macros/ and src/ is project configuration
	for _, f := range files {
		switch first, _, _ := strings.Cut(f, "/"); first {
		case "macros", "src":
			groups[first] = append(groups[first], f)
		default:
			groups["config"] = append(groups["config"], f)
		}
	}

	return groups
}
