package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/reusee/taiplan/envs"
)

const (
	defaultContextLines = 2
	defaultMaxResults   = 50
)

// SearchTool greps the tree under root for a regular expression, returning
// file:line matches with surrounding context.
func SearchTool(root string) envs.Tool {
	return envs.Tool{
		Decl: envs.FuncDecl{
			Name:        "search",
			Description: "Search files under the project root for a regular expression. Returns matching lines as path:line with context.",
			Params: envs.Vars{
				{
					Name:        "pattern",
					Type:        envs.TypeString,
					Description: "Regular expression to search for.",
				},
				{
					Name:        "path",
					Type:        envs.TypeString,
					Optional:    true,
					Default:     ".",
					Description: "Subdirectory to search in, relative to the project root.",
				},
				{
					Name:        "contextLines",
					Type:        envs.TypeInteger,
					Optional:    true,
					Default:     defaultContextLines,
					Description: "Lines of context around each match.",
				},
				{
					Name:        "maxResults",
					Type:        envs.TypeInteger,
					Optional:    true,
					Default:     defaultMaxResults,
					Description: "Stop after this many matches.",
				},
			},
		},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			pattern, _ := params["pattern"].(string)
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("bad pattern: %w", err)
			}

			sub, _ := params["path"].(string)
			dir, err := resolveUnder(root, sub)
			if err != nil {
				return nil, err
			}
			contextLines := intParam(params, "contextLines", defaultContextLines)
			maxResults := intParam(params, "maxResults", defaultMaxResults)

			var out strings.Builder
			matches := 0
			err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if d.IsDir() {
					if skipDir(d.Name()) {
						return filepath.SkipDir
					}
					return nil
				}
				if matches >= maxResults {
					return filepath.SkipAll
				}

				content, err := os.ReadFile(path)
				if err != nil {
					return nil
				}
				if looksBinary(content[:min(len(content), 4096)]) {
					return nil
				}

				rel, err := filepath.Rel(root, path)
				if err != nil {
					rel = path
				}
				lines := strings.Split(string(content), "\n")
				for i, line := range lines {
					if !re.MatchString(line) {
						continue
					}
					writeMatch(&out, rel, lines, i, contextLines)
					matches++
					if matches >= maxResults {
						break
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}

			if matches == 0 {
				return "no matches", nil
			}
			return strings.TrimRight(out.String(), "\n"), nil
		},
	}
}

func writeMatch(out *strings.Builder, rel string, lines []string, i, contextLines int) {
	lo := max(0, i-contextLines)
	hi := min(len(lines)-1, i+contextLines)
	for n := lo; n <= hi; n++ {
		marker := "-"
		if n == i {
			marker = ":"
		}
		fmt.Fprintf(out, "%s:%d%s %s\n", rel, n+1, marker, lines[n])
	}
	out.WriteString("--\n")
}

func intParam(params map[string]any, name string, fallback int) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// resolveUnder joins sub onto root and rejects escapes above it.
func resolveUnder(root, sub string) (string, error) {
	if sub == "" || sub == "." {
		return root, nil
	}
	joined := filepath.Join(root, sub)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root: %s", sub)
	}
	return joined, nil
}
