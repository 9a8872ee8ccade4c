package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/taskchat/internal/domain"
	"github.com/ashureev/taskchat/internal/store"
	"gopkg.in/yaml.v3"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := store.NewSQLite(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, u := range []struct {
		id   int64
		name string
	}{{1, "ann"}, {2, "bob"}} {
		if err := s.RegisterUser(ctx, u.id, u.name); err != nil {
			t.Fatalf("RegisterUser: %v", err)
		}
	}

	milk, err := s.CreateTask(ctx, 1, "Buy milk")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	desc := "2%"
	if err := s.AttachDescription(ctx, milk, 1, &desc); err != nil {
		t.Fatalf("AttachDescription: %v", err)
	}
	if err := s.CompleteTask(ctx, milk, 1); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if _, err := s.CreateTask(ctx, 1, "Call mom"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.CreateTask(ctx, 2, "Fix bike"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUsersTable(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "users", "--db", db)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	for _, want := range []string{"USER ID", "ann", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestTasksFilters(t *testing.T) {
	db := seedDB(t)

	out, err := run(t, "tasks", "--db", db)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	for _, want := range []string{"Buy milk", "Call mom", "Fix bike", "2%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	out, err = run(t, "tasks", "--db", db, "--user", "1", "--pending")
	if err != nil {
		t.Fatalf("tasks --pending: %v", err)
	}
	if !strings.Contains(out, "Call mom") || strings.Contains(out, "Buy milk") || strings.Contains(out, "Fix bike") {
		t.Errorf("Unexpected pending output:\n%s", out)
	}
}

func TestTasksYAML(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "tasks", "--db", db, "--user", "2", "-o", "yaml")
	if err != nil {
		t.Fatalf("tasks yaml: %v", err)
	}

	var tasks []domain.Task
	if err := yaml.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("yaml output does not parse: %v\n%s", err, out)
	}
	if len(tasks) != 1 || tasks[0].Title != "Fix bike" || tasks[0].OwnerID != 2 {
		t.Errorf("Unexpected tasks %+v", tasks)
	}
}

func TestErrors(t *testing.T) {
	db := seedDB(t)

	if _, err := run(t, "tasks", "--db", db, "-o", "json"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if _, err := run(t, "tasks", "--db", db, "--user", "0"); err == nil {
		t.Error("Expected error for invalid user id")
	}
	if _, err := run(t, "users", "--db", filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("Expected error for missing database")
	}
}

func TestDoesNotWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := run(t, "users", "--db", path); err == nil {
		t.Error("Expected error for database without schema")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected file left untouched, got %d bytes", info.Size())
	}
}

func TestCell(t *testing.T) {
	if got := cell("multi\nline   text"); got != "multi line text" {
		t.Errorf("cell flattened to %q", got)
	}
	long := strings.Repeat("x", 100)
	if got := []rune(cell(long)); len(got) != maxCell {
		t.Errorf("Expected %d runes, got %d", maxCell, len(got))
	}
}

func TestRenderEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := renderTasks(&out, formatTable, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "No tasks." {
		t.Errorf("Unexpected output %q", out.String())
	}
}
