package tools

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/reusee/taiplan/envs"
)

// ListFilesTool enumerates files under root with optional glob filtering on
// the base name.
func ListFilesTool(root string) envs.Tool {
	return envs.Tool{
		Decl: envs.FuncDecl{
			Name:        "listFiles",
			Description: "List files under the project root, optionally filtered by a glob on the file name.",
			Params: envs.Vars{
				{
					Name:        "path",
					Type:        envs.TypeString,
					Optional:    true,
					Default:     ".",
					Description: "Subdirectory to list, relative to the project root.",
				},
				{
					Name:        "glob",
					Type:        envs.TypeString,
					Optional:    true,
					Description: "Glob matched against the file name, e.g. *.go",
				},
			},
		},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			sub, _ := params["path"].(string)
			dir, err := resolveUnder(root, sub)
			if err != nil {
				return nil, err
			}
			glob, _ := params["glob"].(string)

			var files []any
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
				if glob != "" {
					ok, err := filepath.Match(glob, d.Name())
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
				}
				rel, err := filepath.Rel(root, path)
				if err != nil {
					rel = path
				}
				files = append(files, rel)
				return nil
			})
			if err != nil {
				return nil, err
			}
			return files, nil
		},
	}
}
