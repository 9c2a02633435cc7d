package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestDirStructure creates a test directory structure
func createTestDirStructure(t *testing.T, baseDir string) {
	t.Helper()

	dirs := []string{
		"src/main",
		"src/static",
		"node_modules/core",
		"vendor/pkg",
		".git/refs",
		"__pycache__",
	}

	files := map[string]string{
		"main.py":                    "def main():\n    print(\"Hello\")\n",
		"src/main/app.py":            "class App:\n    pass\n",
		"src/main/app.js":            "console.log('app')\n",
		"src/static/site.css":        "body { color: red; }\n",
		"src/main/large.py":          strings.Repeat("# line\n", 2000),
		"src/main/notes.txt":         "not reviewed",
		"src/main/debug.log.py":      "x = 1\n",
		"node_modules/core/index.js": "module.exports = {}",
		"vendor/pkg/lib.py":          "pass\n",
		"__pycache__/main.py":        "pass\n",
		".git/config":                "[core]",
		".gitignore":                 "*.log.py\nnode_modules/\n",
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	for path, content := range files {
		fullPath := filepath.Join(baseDir, path)
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}
