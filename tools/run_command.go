package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/reusee/taiplan/envs"
)

const defaultCommandTimeout = 60

type runCommandParams struct {
	Command        string `json:"command" jsonschema:"description=The command string to execute in /bin/sh."`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" jsonschema:"description=Kill the command after this many seconds."`
}

// RunCommandTool executes a shell command with a timeout and captured output.
// The validation schema is derived from the params struct.
func RunCommandTool(dir string) envs.Tool {
	return envs.Tool{
		Decl: envs.FuncDecl{
			Name:        "runCommand",
			Description: "Execute a shell command in /bin/sh and return stdout, stderr and the exit code.",
			Params: envs.Vars{
				{
					Name: "command",
					Type: envs.TypeString,
				},
				{
					Name:     "timeoutSeconds",
					Type:     envs.TypeInteger,
					Optional: true,
					Default:  defaultCommandTimeout,
				},
			},
		},
		ParamsType: runCommandParams{},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			command, _ := params["command"].(string)
			timeout := intParam(params, "timeoutSeconds", defaultCommandTimeout)

			ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
			defer cancel()

			cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
			cmd.Dir = dir
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			err := cmd.Run()
			exitCode := 0
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					exitCode = exitErr.ExitCode()
				} else {
					return nil, err
				}
			}
			return map[string]any{
				"stdout":   stdout.String(),
				"stderr":   stderr.String(),
				"exitCode": exitCode,
			}, nil
		},
	}
}
