// Package executor builds and spawns the upstream CLI as a one-shot child
// process, parses its structured JSON response, and surfaces a small set
// of typed errors for the ways that invocation can fail.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/bazelment/claude-sdk-go/internal/procattr"
	"github.com/bazelment/claude-sdk-go/sdkerrors"
)

// Prompt carries one request to the CLI.
type Prompt struct {
	// ResumeID, if non-empty, continues a specific prior session instead
	// of starting fresh.
	ResumeID string `json:"resume_id,omitempty"`
	Text     string `json:"text"`

	// AllowedTools and Model, when non-empty, override the Executor's
	// configured defaults for this invocation only.
	AllowedTools []string `json:"allowed_tools,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// Execution is the result of one invocation: the assistant's textual
// response (empty when only tools were used), the new session id the CLI
// minted, the tool names it invoked, and timing/cost.
type Execution struct {
	Prompt     Prompt        `json:"prompt"`
	Response   string        `json:"response"`
	SessionID  string        `json:"session_id"`
	Model      string        `json:"model,omitempty"`
	ToolsUsed  []string      `json:"tools_used,omitempty"`
	Cost       float64       `json:"cost"`
	Duration   time.Duration `json:"duration"`
	ReportedMs int64         `json:"reported_ms,omitempty"`
}

// cliResponse is the single top-level JSON object the CLI prints to
// stdout in --output-format json mode.
type cliResponse struct {
	Result     string   `json:"result"`
	SessionID  string   `json:"session_id"`
	CostUSD    float64  `json:"cost_usd"`
	Model      string   `json:"model,omitempty"`
	DurationMs *int64   `json:"duration_ms,omitempty"`
	ToolsUsed  []string `json:"tools_used,omitempty"`
}

// Config is the functional-options configuration for an Executor,
// following the shape of agent-cli-wrapper/claude's SessionConfig.
type Config struct {
	Logger         *slog.Logger
	CLIPath        string
	AllowedTools   []string
	Model          string
	Env            map[string]string
	Timeout        time.Duration
	SkipPermission bool
}

// Option configures an Executor.
type Option func(*Config)

// WithCLIPath sets a custom CLI binary path. Empty (the default) resolves
// "claude" from $PATH.
func WithCLIPath(path string) Option { return func(c *Config) { c.CLIPath = path } }

// WithAllowedTools sets the default tool allowlist for every invocation.
func WithAllowedTools(tools []string) Option { return func(c *Config) { c.AllowedTools = tools } }

// WithModel sets the default model override.
func WithModel(model string) Option { return func(c *Config) { c.Model = model } }

// WithTimeout sets a hard wall-clock timeout on the subprocess wait. Zero
// (the default) means no timeout beyond ctx's own deadline.
func WithTimeout(d time.Duration) Option { return func(c *Config) { c.Timeout = d } }

// WithEnv adds environment variables to the spawned process, in addition
// to the current process's environment.
func WithEnv(env map[string]string) Option { return func(c *Config) { c.Env = env } }

// WithDangerouslySkipPermissions passes --dangerously-skip-permissions.
// Per upstream, this requires prior interactive acceptance; prefer
// WithAllowedTools for automated use.
func WithDangerouslySkipPermissions() Option { return func(c *Config) { c.SkipPermission = true } }

// WithLogger sets the logger used for subprocess diagnostics. Defaults to
// a logger that discards everything.
func WithLogger(l *slog.Logger) Option { return func(c *Config) { c.Logger = l } }

func defaultConfig() Config {
	return Config{Logger: slog.New(discardHandler{})}
}

// discardHandler is a slog.Handler that drops everything, used as the
// default when no logger is configured (agent-cli-wrapper's nopLogger
// pattern, generalized across packages).
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// Executor drives the upstream CLI as a child process.
type Executor struct {
	config Config
}

// New creates an Executor with the given options.
func New(opts ...Option) *Executor {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Executor{config: cfg}
}

// BuildArgs returns the exact CLI argument list for prompt, honoring
// per-invocation overrides over the Executor's configured defaults. Order
// matters: the prompt text must be the final positional argument.
func (e *Executor) BuildArgs(prompt Prompt) []string {
	var args []string

	if prompt.ResumeID != "" {
		args = append(args, "--resume", prompt.ResumeID)
	}

	allowed := prompt.AllowedTools
	if len(allowed) == 0 {
		allowed = e.config.AllowedTools
	}
	if len(allowed) > 0 {
		args = append(args, "--allowedTools", joinCSV(allowed))
	}

	model := prompt.Model
	if model == "" {
		model = e.config.Model
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	if e.config.SkipPermission {
		args = append(args, "--dangerously-skip-permissions")
	}

	args = append(args, "-p", "--output-format", "json", prompt.Text)
	return args
}

// Execute spawns the CLI with workDir as its working directory, waits for
// it to exit, and parses its structured JSON response.
func (e *Executor) Execute(ctx context.Context, workDir string, prompt Prompt) (*Execution, error) {
	cliPath := e.config.CLIPath
	if cliPath == "" {
		cliPath = "claude"
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	args := e.BuildArgs(prompt)
	cmd := exec.CommandContext(runCtx, cliPath, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	for k, v := range e.config.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	procattr.Set(cmd)
	cmd.Cancel = func() error { return procattr.KillGroup(cmd.Process) }

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		var pathErr *fs.PathError
		if errors.Is(err, exec.ErrNotFound) ||
			(errors.As(err, &pathErr) && pathErr.Path == cliPath && errors.Is(pathErr, fs.ErrNotExist)) {
			return nil, sdkerrors.Wrap(sdkerrors.NotFound, "CLI binary not found", err).WithPath(cliPath)
		}
		var exitErr *exec.ExitError
		if asExitError(err, &exitErr) {
			return nil, sdkerrors.Newf(sdkerrors.Invocation, "CLI exited with code %d: %s", exitErr.ExitCode(), stderr.String())
		}
		return nil, sdkerrors.Wrap(sdkerrors.Invocation, "failed to run CLI", err)
	}

	var resp cliResponse
	if jsonErr := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); jsonErr != nil {
		return nil, sdkerrors.Wrap(sdkerrors.Parse, "CLI response is not valid JSON", jsonErr)
	}
	if resp.SessionID == "" {
		return nil, sdkerrors.New(sdkerrors.Parse, "CLI response missing session_id")
	}

	e.config.Logger.Debug("executed CLI invocation",
		"session_id", resp.SessionID,
		"duration", duration,
		"cost_usd", resp.CostUSD,
	)

	execution := &Execution{
		Prompt:    prompt,
		Response:  resp.Result,
		SessionID: resp.SessionID,
		Model:     resp.Model,
		ToolsUsed: resp.ToolsUsed,
		Cost:      resp.CostUSD,
		Duration:  duration, // always measured here, regardless of any CLI-reported value
	}
	if resp.DurationMs != nil {
		execution.ReportedMs = *resp.DurationMs
	}
	return execution, nil
}

func joinCSV(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
