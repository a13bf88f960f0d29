package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/reusee/dscope"
	"go.opentelemetry.io/otel"
	"golang.org/x/term"

	"github.com/reusee/taiplan/cmds"
	"github.com/reusee/taiplan/debugs"
	"github.com/reusee/taiplan/envs"
	"github.com/reusee/taiplan/executes"
	"github.com/reusee/taiplan/generators"
	"github.com/reusee/taiplan/logs"
	"github.com/reusee/taiplan/modes"
	"github.com/reusee/taiplan/nets"
	"github.com/reusee/taiplan/planconfigs"
	"github.com/reusee/taiplan/tools"
	"github.com/reusee/taiplan/traces"
)

var (
	planPath   = cmds.Var[string]("-plan")
	rootDir    = cmds.Var[string]("-root")
	mcpCommand = cmds.Var[string]("-mcp")
	mcpURL     = cmds.Var[string]("-mcp-url")
	withLLM    = cmds.Switch("-llm")
	tapAfter   = cmds.Switch("-tap")
)

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	scope := dscope.New(
		new(Module),
		modes.ForProduction(),
	)

	scope.Call(func(
		logger logs.Logger,
		newSpan logs.NewSpan,
		llmCall generators.LLMCall,
		counter generators.BPETokenCounter,
		httpClient nets.HTTPClient,
		ceiling planconfigs.MapCeiling,
		iterations planconfigs.LoopIterations,
		wallClock planconfigs.LoopWallClock,
		truncate planconfigs.TruncateLength,
		tap debugs.Tap,
	) {

		ctx, _ := newSpan(ctx, "")

		source := readPlan()

		root := *rootDir
		if root == "" {
			wd, err := os.Getwd()
			ce(err)
			root = wd
		}

		opts := envs.Options{
			Tools:      tools.All(root),
			MapCeiling: int(ceiling),
			Logger:     logger,
			Counter:    envs.TokenCounter(counter),
			Output:     &envs.OutputBuffer{},
			Tracer: &traces.Tracer{
				Tracer:      otel.Tracer("planrun"),
				Logger:      logger,
				TruncateLen: int(truncate),
			},
		}

		if *withLLM {
			opts.LLM = envs.ModelCaller(llmCall)
		}

		if mcpClient := connectMCP(ctx, httpClient); mcpClient != nil {
			defer mcpClient.Close()
			opts.MCP = mcpClient
		}

		env, err := envs.Build(ctx, opts)
		ce(err)

		session := executes.NewSession(env, executes.Config{
			MaxLoopIterations: int64(iterations),
			LoopBudget:        time.Duration(wallClock),
			Logger:            logger,
		})

		res, err := session.Execute(ctx, source)
		if err != nil {
			logger.Error("plan failed", "error", logs.WrapSpan(ctx, err))
			os.Exit(1)
		}

		printResult(res)

		if *tapAfter {
			tap(ctx, "after run", map[string]any{
				"result": res.Result,
				"logs":   res.Logs,
				"output": res.Output,
				"store":  env.Store.All(),
			})
		}
	})
}

func readPlan() string {
	if *planPath != "" {
		content, err := os.ReadFile(*planPath)
		ce(err)
		return string(content)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "no plan: pass -plan <file> or pipe source to stdin")
		os.Exit(1)
	}
	content, err := io.ReadAll(os.Stdin)
	ce(err)
	return string(content)
}

func connectMCP(ctx context.Context, httpClient nets.HTTPClient) *client.Client {
	var mcpClient *client.Client
	var err error

	switch {
	case *mcpCommand != "":
		fields := strings.Fields(*mcpCommand)
		mcpClient, err = client.NewStdioMCPClient(fields[0], os.Environ(), fields[1:]...)
		ce(err)
	case *mcpURL != "":
		mcpClient, err = client.NewStreamableHttpClient(*mcpURL,
			transport.WithHTTPBasicClient(httpClient),
		)
		ce(err)
		ce(mcpClient.Start(ctx))
	default:
		return nil
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "planrun",
		Version: "0.1.0",
	}
	_, err = mcpClient.Initialize(ctx, initReq)
	ce(err)

	return mcpClient
}

func printResult(res *executes.RunResult) {
	if len(res.Logs) > 0 {
		fmt.Fprintln(os.Stderr, "# logs")
		for _, line := range res.Logs {
			fmt.Fprintln(os.Stderr, line)
		}
	}

	for _, fragment := range res.Output {
		fmt.Println(fragment)
	}

	if res.Result != nil {
		encoded, err := json.MarshalIndent(res.Result, "", "  ")
		if err != nil {
			fmt.Printf("%v\n", res.Result)
			return
		}
		fmt.Println(string(encoded))
	}
}
