// Package observer watches a workspace directory and the upstream CLI's
// session log for it, producing point-in-time Snapshots without driving
// the CLI itself. It is read-only: nothing here spawns a process.
package observer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/bazelment/claude-sdk-go/pathenc"
	"github.com/bazelment/claude-sdk-go/sdkerrors"
	"github.com/bazelment/claude-sdk-go/session"
)

// ErrNoProjectDir is wrapped into the returned error when the workspace has
// no corresponding project directory under the CLI's state root.
var ErrNoProjectDir = errors.New("observer: no project directory for workspace")

// ErrNoSessionFound is wrapped into the returned error when a project
// directory exists but holds no session log, or when polling for a specific
// session id times out.
var ErrNoSessionFound = errors.New("observer: no matching session found")

// defaultMaxFileSize bounds how much of any single workspace file Snapshot
// will read into memory.
const defaultMaxFileSize = 2 * 1024 * 1024

// Snapshot is a point-in-time view of a workspace: the files Observer was
// configured to track, plus the parsed state of its active CLI session (if
// any was found).
type Snapshot struct {
	WorkspacePath string
	Files         map[string]string // relative path -> content
	Skipped       []string          // files matched but skipped (too large or not UTF-8)
	SessionLog    string            // absolute path to the session log used, if any
	SessionID     string            // session id currently being written to, if known
	Session       *session.Handle
	TakenAt       time.Time
}

// Config is the functional-options configuration for an Observer.
type Config struct {
	Home           string
	StateRoot      string
	AllowGlobs     []string
	MaxFileSize    int64
	PollInterval   time.Duration
	PollTimeout    time.Duration
	ParserOptions  []session.Option
}

// Option configures an Observer.
type Option func(*Config)

// WithHome overrides the home directory under which the CLI's state root is
// located. Defaults to os.UserHomeDir().
func WithHome(home string) Option { return func(c *Config) { c.Home = home } }

// WithStateRoot overrides the CLI's state-root directory name. Defaults to
// pathenc.DefaultStateRoot.
func WithStateRoot(root string) Option { return func(c *Config) { c.StateRoot = root } }

// WithAllowGlobs sets the glob patterns (relative to the workspace root,
// "**" matches any number of directories) that Snapshot reads file content
// for. Defaults to nil, meaning Snapshot captures no workspace files beyond
// the *.jsonl logs under the workspace's own state-root subdirectory.
func WithAllowGlobs(globs ...string) Option {
	return func(c *Config) { c.AllowGlobs = append([]string(nil), globs...) }
}

// WithMaxFileSize caps how large a single matched file may be before
// Snapshot skips it instead of reading it. Defaults to 2MiB.
func WithMaxFileSize(n int64) Option { return func(c *Config) { c.MaxFileSize = n } }

// WithPoll sets the interval and timeout used by SnapshotWithSession while
// waiting for a target session id to appear. Defaults to 10ms / 500ms.
func WithPoll(interval, timeout time.Duration) Option {
	return func(c *Config) { c.PollInterval, c.PollTimeout = interval, timeout }
}

// WithParserOptions passes through options to session.Load/LoadReader when
// parsing a discovered session log.
func WithParserOptions(opts ...session.Option) Option {
	return func(c *Config) { c.ParserOptions = append([]session.Option(nil), opts...) }
}

func defaultConfig() Config {
	return Config{
		StateRoot:    pathenc.DefaultStateRoot,
		MaxFileSize:  defaultMaxFileSize,
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  500 * time.Millisecond,
	}
}

// Observer watches one workspace and the CLI session log associated with
// it.
type Observer struct {
	config Config
}

// New creates an Observer with the given options.
func New(opts ...Option) (*Observer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to resolve home directory", err)
		}
		cfg.Home = home
	}
	return &Observer{config: cfg}, nil
}

// Snapshot captures workspacePath's tracked files and parses the session log
// located for it (see locateSessionLog). A workspace with no project
// directory yields a Snapshot with no session attached; a project directory
// holding no session log is an error wrapping ErrNoSessionFound.
func (o *Observer) Snapshot(workspacePath string) (*Snapshot, error) {
	return o.snapshot(workspacePath, "")
}

// SnapshotWithSession is like Snapshot, but waits (bounded by the
// configured poll interval/timeout) for a session log carrying the given
// session id to appear or be updated, instead of settling for whichever log
// was most recently modified. Returns ErrNoSessionFound (wrapped) if the
// deadline elapses first.
func (o *Observer) SnapshotWithSession(workspacePath, targetSessionID string) (*Snapshot, error) {
	if targetSessionID == "" {
		return o.snapshot(workspacePath, "")
	}

	watcher := newProjectWatcher(o.config.Home, o.config.StateRoot, workspacePath)
	defer watcher.close()

	deadline := time.Now().Add(o.config.PollTimeout)
	var lastErr error
	for {
		snap, err := o.snapshot(workspacePath, targetSessionID)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		if !errors.Is(err, ErrNoSessionFound) || time.Now().After(deadline) {
			break
		}
		watcher.wait(o.config.PollInterval)
	}
	return nil, lastErr
}

func (o *Observer) snapshot(workspacePath, targetSessionID string) (*Snapshot, error) {
	files, skipped, err := o.walkFiles(workspacePath)
	if err != nil {
		return nil, err
	}

	logPath, logErr := o.locateSessionLog(workspacePath, targetSessionID)

	snap := &Snapshot{
		WorkspacePath: workspacePath,
		Files:         files,
		Skipped:       skipped,
		TakenAt:       time.Now(),
	}

	if logErr != nil {
		if errors.Is(logErr, ErrNoProjectDir) {
			return snap, nil
		}
		return nil, logErr
	}

	snap.SessionLog = logPath
	sess, _, err := session.Load(logPath, o.config.ParserOptions...)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to parse session log", err).WithPath(logPath)
	}
	h := session.NewHandle(sess)
	snap.Session = &h
	snap.SessionID = sess.ID
	return snap, nil
}

// locateSessionLog finds the session log to attach to a Snapshot. *.jsonl
// files kept locally under the workspace's own state-root subdirectory are
// checked first, in directory-listing order: the first one carrying
// targetSessionID, or simply the first one when no target was requested.
// Otherwise it returns, from the project directory, the most recently
// modified log carrying targetSessionID, or the most recently modified log
// when no target was requested.
func (o *Observer) locateSessionLog(workspacePath, targetSessionID string) (string, error) {
	local := filepath.Join(workspacePath, o.config.StateRoot)
	if entries, err := os.ReadDir(local); err == nil {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
				continue
			}
			path := filepath.Join(local, e.Name())
			if targetSessionID == "" {
				return path, nil
			}
			if logCarriesSession(path, targetSessionID) {
				return path, nil
			}
		}
	}

	sessions, err := pathenc.FindSessions(o.config.Home, o.config.StateRoot, workspacePath)
	if err != nil {
		var sdkErr *sdkerrors.Error
		if errors.As(err, &sdkErr) && sdkErr.Kind == sdkerrors.NotFound {
			return "", sdkerrors.Wrap(sdkerrors.NotFound, "no project directory for workspace", ErrNoProjectDir).WithPath(workspacePath)
		}
		return "", err
	}

	if targetSessionID == "" {
		path, err := pathenc.ActiveSessionLog(o.config.Home, o.config.StateRoot, workspacePath)
		if err != nil {
			return "", sdkerrors.Wrap(sdkerrors.NotFound, "no session logs found", ErrNoSessionFound).WithPath(workspacePath)
		}
		return path, nil
	}

	sort.Slice(sessions, func(i, j int) bool {
		ii, _ := os.Stat(sessions[i])
		jj, _ := os.Stat(sessions[j])
		if ii == nil || jj == nil {
			return false
		}
		return ii.ModTime().After(jj.ModTime())
	})
	for _, path := range sessions {
		if logCarriesSession(path, targetSessionID) {
			return path, nil
		}
	}
	return "", sdkerrors.Wrap(sdkerrors.NotFound, "no session log carries the target session id", ErrNoSessionFound).WithPath(targetSessionID)
}

// logCarriesSession does a cheap parse (no strict mode, warnings ignored)
// to check whether a log's session id matches target, without fully
// committing to returning it as the chosen Snapshot source.
func logCarriesSession(path, target string) bool {
	sess, _, err := session.Load(path)
	if err != nil || sess == nil {
		return false
	}
	return sess.ID == target
}

// walkFiles reads every file under workspacePath that matches one of the
// configured allow-list globs, plus every "*.jsonl" file kept locally
// under the workspace's own CLI state-root subdirectory (included
// unconditionally, independent of AllowGlobs: per spec.md §4.5/§3, a
// workspace-local state-root log is always part of the snapshot, not
// something the allow-list gates). Skips anything too large or not valid
// UTF-8 text either way.
func (o *Observer) walkFiles(workspacePath string) (map[string]string, []string, error) {
	files := make(map[string]string)
	var skipped []string

	if len(o.config.AllowGlobs) > 0 {
		if err := o.walkAllowedGlobs(workspacePath, files, &skipped); err != nil {
			return nil, nil, err
		}
	}

	o.includeStateDirLogs(workspacePath, files, &skipped)

	return files, skipped, nil
}

func (o *Observer) walkAllowedGlobs(workspacePath string, files map[string]string, skipped *[]string) error {
	err := filepath.WalkDir(workspacePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort: unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(workspacePath, path)
		if relErr != nil {
			return nil
		}
		if !matchesAny(o.config.AllowGlobs, rel) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			*skipped = append(*skipped, rel)
			return nil
		}
		if o.config.MaxFileSize > 0 && info.Size() > o.config.MaxFileSize {
			*skipped = append(*skipped, rel)
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			*skipped = append(*skipped, rel)
			return nil
		}
		if !isValidText(data) {
			*skipped = append(*skipped, rel)
			return nil
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return sdkerrors.Wrap(sdkerrors.IO, "failed to walk workspace", err).WithPath(workspacePath)
	}
	return nil
}

// includeStateDirLogs adds every "*.jsonl" file directly under
// "<workspacePath>/<StateRoot>" to files, keyed by its path relative to
// workspacePath. A missing or unreadable state directory is not an error:
// most workspaces have no workspace-local session logs at all.
func (o *Observer) includeStateDirLogs(workspacePath string, files map[string]string, skipped *[]string) {
	dir := filepath.Join(workspacePath, o.config.StateRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		rel := filepath.ToSlash(filepath.Join(o.config.StateRoot, e.Name()))
		if _, exists := files[rel]; exists {
			continue
		}

		info, statErr := e.Info()
		if statErr != nil {
			*skipped = append(*skipped, rel)
			continue
		}
		if o.config.MaxFileSize > 0 && info.Size() > o.config.MaxFileSize {
			*skipped = append(*skipped, rel)
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(dir, e.Name()))
		if readErr != nil {
			*skipped = append(*skipped, rel)
			continue
		}
		if !isValidText(data) {
			*skipped = append(*skipped, rel)
			continue
		}
		files[rel] = string(data)
	}
}

func isValidText(data []byte) bool {
	return utf8.Valid(data)
}
