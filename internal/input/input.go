// Package input reads address tokens from plain-text lists and from
// SSL-inspection spreadsheets.
package input

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadList reads one address token per line, stripping all whitespace.
// Blank lines are skipped.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		token := strings.Join(strings.Fields(sc.Text()), "")
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// LatestFile returns the newest file (by modification time) in dir matching
// the glob pattern, or an error when nothing matches.
func LatestFile(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	var newest string
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = m
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no file matching %q in %s", pattern, dir)
	}
	return newest, nil
}
