package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reusee/taiplan/envs"
)

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(path, content string) {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n")
	write("lib/util.go", "package lib\n\n// helper things\nfunc Helper() {}\n")
	write("README.md", "# readme\n")
	write(".git/config", "[core]\n")
	write("node_modules/dep/index.js", "function main() {}\n")
	return dir
}

func TestSearch(t *testing.T) {
	dir := fixtureDir(t)
	tool := SearchTool(dir)
	res, err := tool.Execute(context.Background(), map[string]any{
		"pattern": `func \w+\(`,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := res.(string)
	if !strings.Contains(s, "main.go:3: func main() {") {
		t.Errorf("got:\n%s", s)
	}
	if !strings.Contains(s, filepath.Join("lib", "util.go")+":4: func Helper() {}") {
		t.Errorf("got:\n%s", s)
	}
	// ignored trees never match
	if strings.Contains(s, "node_modules") || strings.Contains(s, ".git") {
		t.Errorf("ignored dir leaked:\n%s", s)
	}
}

func TestSearchNoMatches(t *testing.T) {
	dir := fixtureDir(t)
	res, err := SearchTool(dir).Execute(context.Background(), map[string]any{
		"pattern": "no such thing anywhere",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res != "no matches" {
		t.Errorf("res = %v", res)
	}
}

func TestSearchBadPattern(t *testing.T) {
	dir := fixtureDir(t)
	_, err := SearchTool(dir).Execute(context.Background(), map[string]any{
		"pattern": "(",
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchMaxResults(t *testing.T) {
	dir := fixtureDir(t)
	res, err := SearchTool(dir).Execute(context.Background(), map[string]any{
		"pattern":      ".",
		"maxResults":   1,
		"contextLines": 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := res.(string)
	if n := strings.Count(s, "--"); n > 1 {
		t.Errorf("got %d matches:\n%s", n, s)
	}
}

func TestExtractWholeFile(t *testing.T) {
	dir := fixtureDir(t)
	res, err := ExtractTool(dir).Execute(context.Background(), map[string]any{
		"path": "README.md",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res != "# readme\n" {
		t.Errorf("res = %q", res)
	}
}

func TestExtractLineTarget(t *testing.T) {
	dir := fixtureDir(t)
	res, err := ExtractTool(dir).Execute(context.Background(), map[string]any{
		"path":         "main.go:3",
		"contextLines": 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "2: \n3: func main() {\n4: \tprintln(\"hello\")"
	if res != want {
		t.Errorf("res = %q", res)
	}
}

func TestSplitLineTarget(t *testing.T) {
	for target, want := range map[string]struct {
		path string
		line int
	}{
		"main.go":         {"main.go", 0},
		"main.go:42":      {"main.go", 42},
		"src/main.rs:7:3": {"src/main.rs", 7},
		"c:thing":         {"c:thing", 0},
	} {
		path, line := splitLineTarget(target)
		if path != want.path || line != want.line {
			t.Errorf("splitLineTarget(%q) = %q, %d", target, path, line)
		}
	}
}

func TestExtractEscape(t *testing.T) {
	dir := fixtureDir(t)
	_, err := ExtractTool(dir).Execute(context.Background(), map[string]any{
		"path": "../outside",
	})
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Errorf("err = %v", err)
	}
}

func TestListFiles(t *testing.T) {
	dir := fixtureDir(t)
	res, err := ListFilesTool(dir).Execute(context.Background(), map[string]any{
		"glob": "*.go",
	})
	if err != nil {
		t.Fatal(err)
	}
	files := res.([]any)
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
}

func TestRunCommand(t *testing.T) {
	dir := fixtureDir(t)
	res, err := RunCommandTool(dir).Execute(context.Background(), map[string]any{
		"command": "echo out; echo err >&2; exit 3",
	})
	if err != nil {
		t.Fatal(err)
	}
	m := res.(map[string]any)
	if m["stdout"] != "out\n" || m["stderr"] != "err\n" || m["exitCode"] != 3 {
		t.Errorf("res = %v", m)
	}
}

func TestToolsThroughEnvironment(t *testing.T) {
	dir := fixtureDir(t)
	env, err := envs.Build(context.Background(), envs.Options{
		Tools: All(dir),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"search", "extract", "listFiles", "runCommand"} {
		if !env.AsyncNames[name] {
			t.Errorf("%s missing from async set", name)
		}
	}
}
