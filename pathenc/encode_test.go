package pathenc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/Users/name/project", "-Users-name-project"},
		{"/Users/name/.hidden", "-Users-name--hidden"},
		{"/Users/name/with_under", "-Users-name-with-under"},
		{"/with_under", "-with-under"},
	}
	for _, c := range cases {
		if got := Encode(c.path); got != c.want {
			t.Errorf("Encode(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestFindSessions_NoProjectDir(t *testing.T) {
	home := t.TempDir()
	_, err := FindSessions(home, ".claude", "/no/such/workspace")
	if err == nil {
		t.Fatal("expected an error for a missing project directory")
	}
}

func TestActiveSessionLog_MostRecent(t *testing.T) {
	home := t.TempDir()
	workspace := "/Users/name/project"
	dir := ProjectDir(home, ".claude", workspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	older := filepath.Join(dir, "older.jsonl")
	newer := filepath.Join(dir, "newer.jsonl")
	if err := os.WriteFile(older, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(newer, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	active, err := ActiveSessionLog(home, ".claude", workspace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != newer {
		t.Fatalf("expected %q, got %q", newer, active)
	}
}

func TestFindProjects_EnumeratesOnlyDirsWithSessions(t *testing.T) {
	home := t.TempDir()
	projectsDir := ProjectsDir(home, ".claude")

	withSession := filepath.Join(projectsDir, "-with-session")
	withoutSession := filepath.Join(projectsDir, "-without-session")
	if err := os.MkdirAll(withSession, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(withoutSession, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(withSession, "s1.jsonl"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	projects, err := FindProjects(home, ".claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 || projects[0].EncodedName != "-with-session" {
		t.Fatalf("expected only the project with a session, got %+v", projects)
	}
}
