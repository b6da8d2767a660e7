package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/obralex/obralex/internal/store"
	"github.com/obralex/obralex/internal/types"
)

// executeCmd runs a CLI command with captured output. Package-level flag
// variables are reset first; cobra parses into them and stale values
// would otherwise leak between tests.
func executeCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	projectDBOverride = ""
	projectJSONOutput = false
	datasetLegalPath = ""
	datasetRulesPath = ""
	exportOutputPath = ""
	dossierOutputPath = ""
	importActivate = true

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

func seedCLIProject(t *testing.T, dbPath, id string) {
	t.Helper()
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	now := time.Now().UTC()
	p := &types.Project{
		ID:        id,
		Name:      "Obra " + id,
		Modality:  "A",
		Stages:    []types.Stage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveProject(context.Background(), id); err != nil {
		t.Fatal(err)
	}
}

func TestProjectList_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	stdout, _, err := executeCmd(t, "project", "list", "--db", dbPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "No projects.") {
		t.Errorf("stdout: %q", stdout)
	}
}

func TestProjectList_Table(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	seedCLIProject(t, dbPath, "p1")

	stdout, _, err := executeCmd(t, "project", "list", "--db", dbPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "ID") || !strings.Contains(stdout, "p1") {
		t.Errorf("stdout: %q", stdout)
	}
	if !strings.Contains(stdout, "*") {
		t.Errorf("active marker missing: %q", stdout)
	}
}

func TestProjectList_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	seedCLIProject(t, dbPath, "p1")

	stdout, _, err := executeCmd(t, "project", "list", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(out) != 1 || out[0]["id"] != "p1" || out[0]["active"] != true {
		t.Errorf("unexpected JSON output: %v", out)
	}
}

func TestProjectExportImport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcDB := filepath.Join(dir, "src.db")
	dstDB := filepath.Join(dir, "dst.db")
	exportFile := filepath.Join(dir, "p1.json")
	seedCLIProject(t, srcDB, "p1")

	_, _, err := executeCmd(t, "project", "export", "p1", "--db", srcDB, "-o", exportFile)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	stdout, _, err := executeCmd(t, "project", "import", exportFile, "--db", dstDB)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(stdout, "Imported") {
		t.Errorf("stdout: %q", stdout)
	}

	s, err := store.NewSQLiteStore(dstDB)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	p, err := s.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("imported project missing: %v", err)
	}
	if p.Modality != "A" {
		t.Errorf("modality: got %q", p.Modality)
	}

	src, err := store.NewSQLiteStore(srcDB)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	orig, err := src.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.CreatedAt.Equal(orig.CreatedAt) || !p.UpdatedAt.Equal(orig.UpdatedAt) {
		t.Errorf("round trip must keep timestamps: got %v/%v, want %v/%v",
			p.CreatedAt, p.UpdatedAt, orig.CreatedAt, orig.UpdatedAt)
	}
	activeID, err := s.ActiveProjectID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if activeID != "p1" {
		t.Errorf("imported project should be active, got %q", activeID)
	}
}

func TestProjectImport_MissingID(t *testing.T) {
	dir := t.TempDir()
	badFile := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badFile, []byte(`{"nombre": "sin id"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := executeCmd(t, "project", "import", badFile,
		"--db", filepath.Join(dir, "cli.db"))
	if err == nil {
		t.Fatal("import without id should fail")
	}
	if !strings.Contains(err.Error(), "id") {
		t.Errorf("error should mention the id field: %v", err)
	}
}

func TestProjectExport_MissingProject(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	_, _, err := executeCmd(t, "project", "export", "ghost", "--db", dbPath)
	if err == nil {
		t.Fatal("export of missing project should fail")
	}
}
