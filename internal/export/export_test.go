package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/asana-dump/internal/asana"
	"github.com/joescharf/asana-dump/internal/asana/asanatest"
	"github.com/joescharf/asana-dump/internal/models"
)

// seedAcme registers one workspace "Acme" with team "Core" holding P1 and P2.
func seedAcme(srv *asanatest.Server) {
	srv.Data("users/me", map[string]any{"gid": "u1", "name": "Ada"})
	srv.Data("workspaces", []map[string]any{{"gid": "w1", "name": "Acme"}})
	srv.Data("users/u1/teams?organization=w1", []map[string]any{{"gid": "t1", "name": "Core"}})
	srv.Data("projects?team=t1&archived=false", []map[string]any{
		{"gid": "101", "name": "P1"},
		{"gid": "102", "name": "P2"},
	})
	srv.Data("projects/101", map[string]any{
		"gid":            "101",
		"name":           "P1",
		"owner":          map[string]any{"gid": "u2", "name": "Alice"},
		"current_status": map[string]any{"color": "green"},
		"start_on":       "2024-01-01",
		"due_date":       "2024-06-01",
	})
	srv.Raw("projects/102", `{"data":{"gid":"102","name":"P2","owner":null,"current_status":null,"start_on":null,"due_date":null}}`)
}

func newTestExporter(t *testing.T, srv *asanatest.Server) *Exporter {
	t.Helper()
	return New(Config{API: asana.NewClient(srv.BaseURL(), "tok")})
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRun_Example(t *testing.T) {
	srv := asanatest.NewServer(t)
	seedAcme(srv)
	out := filepath.Join(t.TempDir(), "out.csv")

	res := newTestExporter(t, srv).Run(context.Background(), out)
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, "Ada", res.User.Name)

	assert.Equal(t, []string{
		strings.TrimSuffix(headerLine, "\n"),
		`"Acme","Core","101","P1","On track","Alice","2024-01-01","2024-06-01"`,
		`"Acme","Core","102","P2","None","","None","None"`,
	}, readLines(t, out))

	assert.Equal(t, []string{
		"users/me",
		"workspaces",
		"users/u1/teams?organization=w1",
		"projects?team=t1&archived=false",
		"projects/101",
		"projects/102",
	}, srv.Paths())
}

func TestRun_PreservesTraversalOrder(t *testing.T) {
	srv := asanatest.NewServer(t)
	srv.Data("users/me", map[string]any{"gid": "u1", "name": "Ada"})
	srv.Data("workspaces", []map[string]any{{"gid": "w2", "name": "Zeta"}, {"gid": "w1", "name": "Alpha"}})
	srv.Data("users/u1/teams?organization=w2", []map[string]any{{"gid": "t3", "name": "Ops"}, {"gid": "t2", "name": "Dev"}})
	srv.Data("users/u1/teams?organization=w1", []map[string]any{{"gid": "t1", "name": "Core"}})
	srv.Data("projects?team=t3&archived=false", []map[string]any{{"gid": "9", "name": "Z"}, {"gid": "8", "name": "A"}})
	srv.Data("projects?team=t2&archived=false", []map[string]any{})
	srv.Data("projects?team=t1&archived=false", []map[string]any{{"gid": "1", "name": "M"}})
	for _, gid := range []string{"9", "8", "1"} {
		srv.Raw("projects/"+gid, `{"data":{"owner":null,"current_status":{"color":"blue"},"start_on":null,"due_date":"2025-01-01"}}`)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	res := newTestExporter(t, srv).Run(context.Background(), out)
	require.NoError(t, res.Err)

	lines := readLines(t, out)
	assert.Equal(t, []string{
		`"Zeta","Ops","9","Z","On hold","","None","2025-01-01"`,
		`"Zeta","Ops","8","A","On hold","","None","2025-01-01"`,
		`"Alpha","Core","1","M","On hold","","None","2025-01-01"`,
	}, lines[1:])
}

func TestRun_IdentityFailureLeavesFileUntouched(t *testing.T) {
	srv := asanatest.NewServer(t)
	srv.Raw("users/me", `{"errors":[{"message":"Not Authorized"}]}`)

	dir := t.TempDir()
	missing := filepath.Join(dir, "new.csv")
	existing := filepath.Join(dir, "old.csv")
	require.NoError(t, os.WriteFile(existing, []byte("previous export\n"), 0o644))

	res := newTestExporter(t, srv).Run(context.Background(), missing)
	assert.Equal(t, models.RunOutcomeFailure, res.Outcome)
	require.Error(t, res.Err)
	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "output file should not be created")

	res = newTestExporter(t, srv).Run(context.Background(), existing)
	assert.Equal(t, models.RunOutcomeFailure, res.Outcome)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous export\n", string(data))
}

func TestRun_PartialWriteOnProjectFailure(t *testing.T) {
	srv := asanatest.NewServer(t)
	seedAcme(srv)
	srv.Data("projects?team=t1&archived=false", []map[string]any{
		{"gid": "101", "name": "P1"},
		{"gid": "103", "name": "Broken"},
		{"gid": "102", "name": "P2"},
	})
	srv.Raw("projects/103", `{"data":{"gid":"103","name":"Broken"}}`)
	out := filepath.Join(t.TempDir(), "out.csv")

	res := newTestExporter(t, srv).Run(context.Background(), out)
	assert.Equal(t, models.RunOutcomePartial, res.Outcome)
	assert.Equal(t, 1, res.Rows)

	var se *asana.ShapeError
	require.True(t, errors.As(res.Err, &se))
	assert.Equal(t, "projects/103", se.Path)

	assert.Equal(t, []string{
		strings.TrimSuffix(headerLine, "\n"),
		`"Acme","Core","101","P1","On track","Alice","2024-01-01","2024-06-01"`,
	}, readLines(t, out))
	assert.NotContains(t, srv.Paths(), "projects/102")
}

func TestRun_WorkspaceFailureKeepsHeader(t *testing.T) {
	srv := asanatest.NewServer(t)
	srv.Data("users/me", map[string]any{"gid": "u1", "name": "Ada"})
	srv.Raw("workspaces", "not json")
	out := filepath.Join(t.TempDir(), "out.csv")

	res := newTestExporter(t, srv).Run(context.Background(), out)
	assert.Equal(t, models.RunOutcomePartial, res.Outcome)
	assert.Equal(t, 0, res.Rows)

	var pe *asana.ParseError
	assert.True(t, errors.As(res.Err, &pe))
	assert.Equal(t, []string{strings.TrimSuffix(headerLine, "\n")}, readLines(t, out))
}

func TestRun_OutputNotWritable(t *testing.T) {
	srv := asanatest.NewServer(t)
	seedAcme(srv)
	out := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	res := newTestExporter(t, srv).Run(context.Background(), out)
	assert.Equal(t, models.RunOutcomeFailure, res.Outcome)
	assert.Contains(t, res.Err.Error(), "create output file")
	assert.Equal(t, []string{"users/me"}, srv.Paths())
}

func TestRun_RemarksAndRaw(t *testing.T) {
	srv := asanatest.NewServer(t)
	seedAcme(srv)
	srv.Data("projects?team=t1&archived=false", []map[string]any{{"gid": "101", "name": `The "big" one`}})
	out := filepath.Join(t.TempDir(), "out.csv")

	e := New(Config{API: asana.NewClient(srv.BaseURL(), "tok"), Raw: true, Remarks: true})
	res := e.Run(context.Background(), out)
	require.NoError(t, res.Err)

	lines := readLines(t, out)
	require.Len(t, lines, 2)
	assert.Equal(t, `"Acme","Core","101","The "big" one","On track","Alice","2024-01-01","2024-06-01",""`, lines[1])
}

func TestRun_Cancelled(t *testing.T) {
	srv := asanatest.NewServer(t)
	seedAcme(srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestExporter(t, srv).Run(ctx, filepath.Join(t.TempDir(), "out.csv"))
	assert.Equal(t, models.RunOutcomeFailure, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}
