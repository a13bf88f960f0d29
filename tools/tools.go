package tools

import (
	"github.com/reusee/taiplan/envs"
)

// All returns the default toolset rooted at dir.
func All(dir string) []envs.Tool {
	return []envs.Tool{
		SearchTool(dir),
		ExtractTool(dir),
		ListFilesTool(dir),
		RunCommandTool(dir),
	}
}
