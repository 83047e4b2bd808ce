package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// SourceFile is one candidate source file found by the scanner.
type SourceFile struct {
	// Path is the file path relative to the project root.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Dialect is the dialect family detected from the extension.
	Dialect Dialect
}

// FileSystemError records a single unreadable path. It is diagnostic,
// not fatal: the scan continues past it.
type FileSystemError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	return "filesystem error at " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FileSystemError) Unwrap() error { return e.Err }

// Inventory is the scanner's complete output for one project.
type Inventory struct {
	// Root is the absolute project root.
	Root string

	// Files are the recognized source files, grouped later by dialect.
	Files []SourceFile

	// Unrecognized are relative paths whose extension matched no dialect
	// family. Recorded for diagnostics, excluded from later stages.
	Unrecognized []string

	// Errors are per-path filesystem failures encountered during the walk.
	Errors []*FileSystemError
}

// ByDialect returns the recognized files belonging to the given dialect.
func (inv *Inventory) ByDialect(d Dialect) []SourceFile {
	var out []SourceFile
	for _, f := range inv.Files {
		if f.Dialect == d {
			out = append(out, f)
		}
	}
	return out
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	".hdlscan/",
	"target/",    // sbt build output
	"project/",   // sbt metadata
	"work/",      // vhdl simulator library
	".Xil/",
	"*.jou",
	"*.log",
	".DS_Store",
}

// WalkProject walks the project tree rooted at root and returns the
// inventory of candidate source files.
//
// A single unreadable file or directory never aborts the scan: the path
// is recorded as a FileSystemError and skipped. Only a root that cannot
// be walked at all produces an error.
func WalkProject(root string) (*Inventory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, err
	}

	patterns, _ := loadGitignore(absRoot)
	allPatterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns)+len(patterns))
	for _, p := range defaultIgnorePatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
	}
	allPatterns = append(allPatterns, patterns...)
	matcher := gitignore.NewMatcher(allPatterns)

	inv := &Inventory{Root: absRoot}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable path: record and move on.
			inv.Errors = append(inv.Errors, &FileSystemError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			inv.Errors = append(inv.Errors, &FileSystemError{Path: path, Err: relErr})
			return nil
		}

		if d.IsDir() {
			if path != absRoot && shouldSkipDir(d.Name(), relPath, matcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.Match(splitPath(relPath), false) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			inv.Errors = append(inv.Errors, &FileSystemError{Path: path, Err: infoErr})
			return nil
		}

		// Symlinks are skipped entirely so link cycles cannot trap the walk.
		if info.Mode()&fs.ModeSymlink != 0 {
			return nil
		}

		dialect, ok := dialectForFile(d.Name())
		if !ok {
			inv.Unrecognized = append(inv.Unrecognized, relPath)
			return nil
		}

		inv.Files = append(inv.Files, SourceFile{
			Path:    relPath,
			Size:    info.Size(),
			Dialect: dialect,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return inv, nil
}

// loadGitignore loads .gitignore patterns from the project root.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	gitignorePath := filepath.Join(root, ".gitignore")

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

// dialectForFile returns the dialect for a file name, based on its extension.
func dialectForFile(filename string) (Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	d, ok := dialectExtensions[ext]
	return d, ok
}

// shouldSkipDir checks if a directory should be skipped.
func shouldSkipDir(name, relPath string, matcher gitignore.Matcher) bool {
	if name == ".git" {
		return true
	}
	return matcher.Match(splitPath(relPath), true)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
