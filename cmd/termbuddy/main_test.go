package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/iishyfishyy/termbuddy/internal/agent"
	"github.com/iishyfishyy/termbuddy/internal/config"
	"github.com/iishyfishyy/termbuddy/internal/docs"
	"github.com/iishyfishyy/termbuddy/internal/history"
	"github.com/iishyfishyy/termbuddy/internal/prompt"
	"github.com/iishyfishyy/termbuddy/internal/shellinit"
)

// fakeAgent records what it was sent and replies with a canned answer
type fakeAgent struct {
	response string
	err      error
	calls    int
	messages []agent.Message
}

func (f *fakeAgent) Generate(ctx context.Context, messages []agent.Message) (string, error) {
	f.calls++
	f.messages = messages
	return f.response, f.err
}

func (f *fakeAgent) Name() string { return "fake" }

// stubRunner pretends only docker is installed
type stubRunner struct{}

func (stubRunner) LookPath(name string) (string, error) {
	if name != "docker" {
		return "", errors.New("not found")
	}
	return "/usr/bin/docker", nil
}

func (stubRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return []byte("Usage:  docker [OPTIONS] COMMAND\n\n  ps  List containers\n"), nil
}

var testEnv = prompt.Env{Shell: "/bin/zsh", Platform: "linux", Arch: "amd64", Cwd: "/work"}

// newTestApp returns an app rooted in a temp dir that answers with ag
func newTestApp(t *testing.T, ag agent.Agent) (*app, *bytes.Buffer) {
	t.Helper()
	stdout := &bytes.Buffer{}
	a := &app{
		paths:  config.PathsIn(t.TempDir()),
		stdout: stdout,
		logger: zap.NewNop(),
		loadConfig: func(string) (*config.Config, error) {
			return &config.Config{Provider: config.ProviderOpenAI, Model: "gpt-5-nano", APIKey: "k"}, nil
		},
		newAgent: func(*config.Config, ...agent.Option) (agent.Agent, error) {
			return ag, nil
		},
		prober:      docs.NewProber(stubRunner{}, nil),
		detectEnv:   func() (prompt.Env, error) { return testEnv, nil },
		openHistory: history.Open,
	}
	return a, stdout
}

func TestGenerateEmptyRequest(t *testing.T) {
	for _, args := range [][]string{nil, {}, {"  ", ""}} {
		ag := &fakeAgent{response: "ls"}
		a, stdout := newTestApp(t, ag)
		loads := 0
		a.loadConfig = func(string) (*config.Config, error) {
			loads++
			return nil, errors.New("should not be called")
		}

		err := a.generate(context.Background(), args, false)
		var usage usageError
		if !errors.As(err, &usage) {
			t.Fatalf("args %q: expected usage error, got %v", args, err)
		}
		if loads != 0 {
			t.Errorf("config must not be read for an empty request, read %d times", loads)
		}
		if ag.calls != 0 || stdout.Len() != 0 {
			t.Errorf("expected no generation and no output")
		}
	}
}

func TestGenerateDockerScenario(t *testing.T) {
	ag := &fakeAgent{response: "```bash\ndocker ps\n```"}
	a, stdout := newTestApp(t, ag)

	if err := a.generate(context.Background(), []string{"list", "running", "docker", "containers"}, false); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if stdout.String() != "docker ps\n" {
		t.Errorf("stdout = %q, want only the sanitized command", stdout.String())
	}
	if ag.calls != 1 {
		t.Fatalf("expected one adapter call, got %d", ag.calls)
	}
	if len(ag.messages) != 2 || ag.messages[0].Role != agent.RoleSystem || ag.messages[1].Role != agent.RoleUser {
		t.Fatalf("expected system and user messages, got %+v", ag.messages)
	}

	user := ag.messages[1].Content
	docIdx := strings.Index(user, "## docker")
	reqIdx := strings.Index(user, "USER REQUEST: list running docker containers")
	if docIdx < 0 || reqIdx < 0 || docIdx > reqIdx {
		t.Errorf("expected docker documentation before the request, got %q", user)
	}

	entries, err := history.NewJSONStore(a.paths.History).All(context.Background())
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Path != "/work" || got.Request != "list running docker containers" || got.Command != "docker ps" {
		t.Errorf("unexpected history entry %+v", got)
	}
}

func TestGenerateWithoutMentionedCommand(t *testing.T) {
	ag := &fakeAgent{response: "df -h"}
	a, _ := newTestApp(t, ag)

	if err := a.generate(context.Background(), []string{"show", "disk", "usage"}, false); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if strings.Contains(ag.messages[1].Content, "COMMAND DOCUMENTATION") {
		t.Error("no documentation block expected")
	}
}

func TestGenerateUnknownProvider(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	a, stdout := newTestApp(t, nil)
	a.loadConfig = func(string) (*config.Config, error) {
		return &config.Config{Provider: "mistral", Model: "m"}, nil
	}
	a.newAgent = agent.New
	a.agentOpts = []agent.Option{agent.WithEndpoint(server.URL)}

	err := a.generate(context.Background(), []string{"list", "files"}, false)
	if !errors.Is(err, agent.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no network call, got %d", calls)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no output, got %q", stdout.String())
	}
}

func TestGenerateMissingConfig(t *testing.T) {
	ag := &fakeAgent{response: "ls"}
	a, _ := newTestApp(t, ag)
	a.loadConfig = config.Load

	err := a.generate(context.Background(), []string{"list", "files"}, false)
	if err == nil || !strings.Contains(err.Error(), `Run "termbuddy setup" first`) {
		t.Fatalf("expected setup hint, got %v", err)
	}
	if ag.calls != 0 {
		t.Error("adapter must not be called without config")
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	ag := &fakeAgent{err: &agent.UpstreamError{Provider: "openai", StatusCode: 401, Detail: "Incorrect API key provided"}}
	a, stdout := newTestApp(t, ag)

	err := a.generate(context.Background(), []string{"list", "files"}, false)
	var upErr *agent.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("expected upstream detail in %q", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("no partial output expected, got %q", stdout.String())
	}
	if _, statErr := os.Stat(a.paths.History); !os.IsNotExist(statErr) {
		t.Error("nothing should be recorded on failure")
	}
}

func TestGenerateHistoryFailureDoesNotBlockOutput(t *testing.T) {
	ag := &fakeAgent{response: "ls -la"}
	a, stdout := newTestApp(t, ag)
	a.openHistory = func(*config.Config, config.Paths) (history.Store, error) {
		return nil, errors.New("read-only file system")
	}

	if err := a.generate(context.Background(), []string{"list", "files"}, false); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if stdout.String() != "ls -la\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestGenerateUnknownHistoryBackendDoesNotBlockOutput(t *testing.T) {
	ag := &fakeAgent{response: "ls -la"}
	a, stdout := newTestApp(t, ag)
	a.loadConfig = func(string) (*config.Config, error) {
		return &config.Config{
			Provider: config.ProviderOpenAI,
			Model:    "gpt-5-nano",
			APIKey:   "k",
			History:  &config.HistoryConfig{Backend: "postgres"},
		}, nil
	}

	if err := a.generate(context.Background(), []string{"list", "files"}, false); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if ag.calls != 1 {
		t.Errorf("expected one adapter call, got %d", ag.calls)
	}
	if stdout.String() != "ls -la\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestShowHistory(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	a, stdout := newTestApp(t, nil)
	store := history.NewJSONStore(a.paths.History)
	ctx := context.Background()
	for _, e := range []history.Entry{
		{Path: cwd, Request: "list files", Command: "ls", Timestamp: 1},
		{Path: "/elsewhere", Request: "disk", Command: "df -h", Timestamp: 2},
		{Path: cwd, Request: "containers", Command: "docker ps", Timestamp: 3},
	} {
		if err := store.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	if err := a.showHistory(ctx, "", history.ModeCommands); err != nil {
		t.Fatalf("showHistory failed: %v", err)
	}
	if stdout.String() != "docker ps\nls\n" {
		t.Errorf("unexpected history output %q", stdout.String())
	}

	stdout.Reset()
	if err := a.showHistory(ctx, "LIST", history.ModeInteractive); err != nil {
		t.Fatalf("showHistory failed: %v", err)
	}
	if stdout.String() != "ls\t# list files\n" {
		t.Errorf("unexpected filtered output %q", stdout.String())
	}
}

func TestShowHistoryEmpty(t *testing.T) {
	a, stdout := newTestApp(t, nil)
	a.loadConfig = config.Load

	if err := a.showHistory(context.Background(), "", history.ModeJSON); err != nil {
		t.Fatalf("showHistory failed: %v", err)
	}
	if stdout.String() != "[]\n" {
		t.Errorf("expected empty json array, got %q", stdout.String())
	}
}

func TestInitCommand(t *testing.T) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"init", "bash"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	want, _ := shellinit.Snippet("bash")
	if out.String() != want {
		t.Errorf("unexpected snippet output %q", out.String())
	}

	cmd = newRootCmd()
	cmd.SetArgs([]string{"init", "tcsh"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestRequestFlagsPassThrough(t *testing.T) {
	defer func() { debug = false }()

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"-d", "list", "files", "-la"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !debug {
		t.Error("expected --debug before the request to be parsed")
	}
	if got := cmd.Flags().Args(); !reflect.DeepEqual(got, []string{"list", "files", "-la"}) {
		t.Errorf("request args = %v", got)
	}
}

func TestRouteArgs(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{nil, nil},
		{[]string{"setup"}, []string{"setup"}},
		{[]string{"setup", "a", "python", "venv"}, []string{"--", "setup", "a", "python", "venv"}},
		{[]string{"init", "zsh"}, []string{"init", "zsh"}},
		{[]string{"init", "a", "git", "repo"}, []string{"--", "init", "a", "git", "repo"}},
		{[]string{"init", "project"}, []string{"--", "init", "project"}},
		{[]string{"history", "docker"}, []string{"history", "docker"}},
		{[]string{"-c", "init", "a", "git", "repo"}, []string{"-c", "--", "init", "a", "git", "repo"}},
		{[]string{"-d", "setup", "a", "venv"}, []string{"-d", "--", "setup", "a", "venv"}},
		{[]string{"--debug", "--copy", "setup", "a", "venv"}, []string{"--debug", "--copy", "--", "setup", "a", "venv"}},
		{[]string{"-d", "setup"}, []string{"-d", "setup"}},
		{[]string{"-d", "init", "fish"}, []string{"-d", "init", "fish"}},
		{[]string{"-d"}, []string{"-d"}},
		{[]string{"--", "setup", "a", "venv"}, []string{"--", "setup", "a", "venv"}},
		{[]string{"list", "files"}, []string{"list", "files"}},
	}

	for _, tt := range tests {
		if got := routeArgs(tt.args); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("routeArgs(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestRoutedRequestReachesRoot(t *testing.T) {
	defer func() { debug, copyResult = false, false }()

	tests := []struct {
		args      []string
		want      []string
		wantDebug bool
		wantCopy  bool
	}{
		{[]string{"init", "a", "git", "repo"}, []string{"init", "a", "git", "repo"}, false, false},
		{[]string{"-c", "init", "a", "git", "repo"}, []string{"init", "a", "git", "repo"}, false, true},
		{[]string{"-d", "setup", "a", "venv"}, []string{"setup", "a", "venv"}, true, false},
	}

	for _, tt := range tests {
		debug, copyResult = false, false

		cmd := newRootCmd()
		found, rest, err := cmd.Find(routeArgs(tt.args))
		if err != nil {
			t.Fatalf("%v: Find failed: %v", tt.args, err)
		}
		if found != cmd {
			t.Errorf("%v: expected root command, got %s", tt.args, found.Name())
			continue
		}
		if err := found.ParseFlags(rest); err != nil {
			t.Fatalf("%v: ParseFlags failed: %v", tt.args, err)
		}
		if got := found.Flags().Args(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%v: request args = %v, want %v", tt.args, got, tt.want)
		}
		if debug != tt.wantDebug || copyResult != tt.wantCopy {
			t.Errorf("%v: debug=%v copy=%v", tt.args, debug, copyResult)
		}
	}
}
