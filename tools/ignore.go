package tools

import (
	"bytes"
	"strings"
)

var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"__pycache__":  true,
}

func skipDir(name string) bool {
	if ignoredDirs[name] {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func looksBinary(chunk []byte) bool {
	return bytes.IndexByte(chunk, 0) >= 0
}
