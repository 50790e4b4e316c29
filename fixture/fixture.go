// Package fixture holds helpers for preparing worker test trees:
// symlinked roots, marker-based line lookup, and rebasing of
// file-relative test identifiers.
package fixture

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LineMarker is the comment marker that tags a test definition line
// inside a fixture file.
const LineMarker = "test_marker--"

// Symlink creates a symlink at root/linkName pointing to root/targetName
// and returns the target path, the link path, and a cleanup func that
// removes the link. The target does not have to exist yet.
func Symlink(root, targetName, linkName string) (target, link string, cleanup func(), err error) {
	target = filepath.Join(root, targetName)
	link = filepath.Join(root, linkName)

	if _, statErr := os.Lstat(link); statErr == nil {
		return "", "", nil, fmt.Errorf("symlink destination already exists: %s", link)
	}
	if err := os.Symlink(target, link); err != nil {
		return "", "", nil, fmt.Errorf("create symlink %s -> %s: %w", link, target, err)
	}

	cleanup = func() {
		_ = os.Remove(link)
	}
	return target, link, cleanup, nil
}

// TestLineNumber returns the 1-based line number of the marker line for
// testName in path. Parameterization brackets in testName are stripped
// before matching, so "test_x[case1]" matches the marker for "test_x".
func TestLineNumber(testName, path string) (int, error) {
	base, _, _ := strings.Cut(testName, "[")
	marker := LineMarker + base

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if strings.Contains(scanner.Text(), marker) {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan fixture %s: %w", path, err)
	}
	return 0, fmt.Errorf("test %q not found on any line in %s", testName, path)
}

// AbsoluteTestID rebases a file-relative test identifier onto an
// absolute fixture path. The identifier's leading path segment is
// replaced; the "::"-separated tail is preserved.
//
//	AbsoluteTestID("tests/a.py::TestC::test_x", "/abs/a.py")
//	  == "/abs/a.py::TestC::test_x"
func AbsoluteTestID(testID, path string) (string, error) {
	if path == "" {
		return "", errors.New("fixture path is required")
	}
	parts := strings.Split(testID, "::")
	return strings.Join(append([]string{path}, parts[1:]...), "::"), nil
}
