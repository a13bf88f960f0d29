package tools

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/reusee/taiplan/envs"
)

const defaultExtractContext = 10

// ExtractTool reads a whole file, or the span around a "path:line" target.
func ExtractTool(root string) envs.Tool {
	return envs.Tool{
		Decl: envs.FuncDecl{
			Name:        "extract",
			Description: "Read a file, or the lines around a path:line target.",
			Params: envs.Vars{
				{
					Name:        "path",
					Type:        envs.TypeString,
					Description: "File path, optionally with :line or :line:column appended.",
				},
				{
					Name:        "contextLines",
					Type:        envs.TypeInteger,
					Optional:    true,
					Default:     defaultExtractContext,
					Description: "Lines of context around the target line.",
				},
			},
		},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			target, _ := params["path"].(string)
			path, line := splitLineTarget(target)

			resolved, err := resolveUnder(root, path)
			if err != nil {
				return nil, err
			}
			content, err := os.ReadFile(resolved)
			if err != nil {
				return nil, err
			}

			if line == 0 {
				return string(content), nil
			}

			contextLines := intParam(params, "contextLines", defaultExtractContext)
			lines := strings.Split(string(content), "\n")
			if line > len(lines) {
				return nil, fmt.Errorf("%s has only %d lines", path, len(lines))
			}
			lo := max(0, line-1-contextLines)
			hi := min(len(lines), line+contextLines)

			var out strings.Builder
			for n := lo; n < hi; n++ {
				fmt.Fprintf(&out, "%d: %s\n", n+1, lines[n])
			}
			return strings.TrimRight(out.String(), "\n"), nil
		},
	}
}

// splitLineTarget strips a trailing :line or :line:column from a path.
func splitLineTarget(target string) (path string, line int) {
	parts := strings.Split(target, ":")
	// strip at most two trailing numeric segments (line, then column);
	// the earliest stripped one is the line
	for range 2 {
		if len(parts) < 2 {
			break
		}
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		line = n
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ":"), line
}
