package pathenc

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bazelment/claude-sdk-go/sdkerrors"
)

// DefaultStateRoot is the directory name, relative to the user's home
// directory, under which the upstream CLI keeps its project session logs.
const DefaultStateRoot = ".claude"

// Project describes one entry under "<home>/<state-root>/projects/".
type Project struct {
	EncodedName string
	Dir         string
	Sessions    []string // .jsonl paths, unordered
}

// ProjectsDir returns "<home>/<stateRoot>/projects".
func ProjectsDir(home, stateRoot string) string {
	if stateRoot == "" {
		stateRoot = DefaultStateRoot
	}
	return filepath.Join(home, stateRoot, "projects")
}

// ProjectDir returns the directory a given workspace path encodes to,
// under "<home>/<stateRoot>/projects".
func ProjectDir(home, stateRoot, workspacePath string) string {
	return filepath.Join(ProjectsDir(home, stateRoot), Encode(workspacePath))
}

// FindSessions lists every ".jsonl" session log under the project
// directory that workspacePath encodes to. Returns sdkerrors.NotFound if
// the project directory does not exist.
func FindSessions(home, stateRoot, workspacePath string) ([]string, error) {
	dir := ProjectDir(home, stateRoot, workspacePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sdkerrors.Wrap(sdkerrors.NotFound, "project directory not found", err).WithPath(dir)
		}
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to read project directory", err).WithPath(dir)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// ActiveSessionLog returns the most-recently-modified ".jsonl" file under
// the project directory workspacePath encodes to — the log the CLI is
// currently (or was most recently) writing to.
func ActiveSessionLog(home, stateRoot, workspacePath string) (string, error) {
	sessions, err := FindSessions(home, stateRoot, workspacePath)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		dir := ProjectDir(home, stateRoot, workspacePath)
		return "", sdkerrors.New(sdkerrors.NotFound, "no session logs found").WithPath(dir)
	}

	var (
		latest     string
		latestTime int64
	)
	for _, path := range sessions {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if mt := info.ModTime().UnixNano(); latest == "" || mt > latestTime {
			latest = path
			latestTime = mt
		}
	}
	if latest == "" {
		return "", sdkerrors.New(sdkerrors.NotFound, "no readable session logs found")
	}
	return latest, nil
}

// FindProjects enumerates every project under "<home>/<stateRoot>/projects"
// — every entry that contains at least one ".jsonl" file.
func FindProjects(home, stateRoot string) ([]Project, error) {
	dir := ProjectsDir(home, stateRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sdkerrors.Wrap(sdkerrors.NotFound, "projects directory not found", err).WithPath(dir)
		}
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to read projects directory", err).WithPath(dir)
	}

	var projects []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		projDir := filepath.Join(dir, e.Name())
		sub, err := os.ReadDir(projDir)
		if err != nil {
			continue
		}
		var sessions []string
		for _, s := range sub {
			if !s.IsDir() && filepath.Ext(s.Name()) == ".jsonl" {
				sessions = append(sessions, filepath.Join(projDir, s.Name()))
			}
		}
		if len(sessions) == 0 {
			continue
		}
		projects = append(projects, Project{EncodedName: e.Name(), Dir: projDir, Sessions: sessions})
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].EncodedName < projects[j].EncodedName })
	return projects, nil
}

// LoadProject resolves an encoded project name back to its directory under
// "<home>/<stateRoot>/projects" and lists its sessions. name must be an
// encoded directory name as returned by FindProjects, not a decoded
// display path (Decode is display-only, per Encode's doc comment).
func LoadProject(home, stateRoot, name string) (Project, error) {
	dir := filepath.Join(ProjectsDir(home, stateRoot), name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Project{}, sdkerrors.Wrap(sdkerrors.NotFound, "project not found", err).WithPath(dir)
		}
		return Project{}, sdkerrors.Wrap(sdkerrors.IO, "failed to read project directory", err).WithPath(dir)
	}
	var sessions []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".jsonl" {
			sessions = append(sessions, filepath.Join(dir, e.Name()))
		}
	}
	return Project{EncodedName: name, Dir: dir, Sessions: sessions}, nil
}
