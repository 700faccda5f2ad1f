package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tbms/internal/core"
)

// run executes tbmsctl against the workbook at book with in-memory settings.
func run(t *testing.T, book string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--workbook", book, "--settings", "memory://"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func workbook(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tbms.xlsx")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func exportRows(t *testing.T, book string, args ...string) []map[string]any {
	t.Helper()
	out, err := run(t, book, append([]string{"export"}, args...)...)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	return rows
}

func TestInitIsIdempotent(t *testing.T) {
	book := workbook(t)

	out, err := run(t, book, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "created "+core.TableStaff)
	assert.Contains(t, out, "created "+core.TableAttendance)
	assert.FileExists(t, book)

	out, err = run(t, book, "init")
	require.NoError(t, err)
	assert.Equal(t, "All tables present\n", out)
}

func TestTablesJSON(t *testing.T) {
	book := workbook(t)

	out, err := run(t, book, "--format", "json", "tables")
	require.NoError(t, err)

	var counts []core.TableCount
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	assert.Len(t, counts, 10)
	for _, c := range counts {
		assert.Zero(t, c.Rows, c.Name)
	}
}

func TestSeedSkipsTablesWithData(t *testing.T) {
	book := workbook(t)
	seed := writeFile(t, "seed.yaml", `
Stores:
  - id: s1
    name: High Street
Staff:
  - id: st1
    storeId: s1
    name: Ann
  - id: st2
    storeId: s1
    name: Bob
Bogus:
  - id: x
`)

	out, err := run(t, book, "seed", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "Staff")
	assert.Contains(t, out, "ok (2 rows)")
	assert.NotContains(t, out, "Bogus")

	rows := exportRows(t, book, "--table", core.TableStaff)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ann", rows[0]["name"])

	out, err = run(t, book, "seed", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped (data exists, 2 rows)")
}

func TestSeedRejectsBadFile(t *testing.T) {
	book := workbook(t)

	_, err := run(t, book, "seed", writeFile(t, "bad.yaml", "Staff: [unclosed"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, book, "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportReplaceAndAppend(t *testing.T) {
	book := workbook(t)
	csv := writeFile(t, "staff.csv", "ID,Store Id,Name,Shoe Size\nst1,s1,Ann,5\nst2,s2,Bob,9\n")

	out, err := run(t, book, "import", csv, "--table", core.TableStaff)
	require.NoError(t, err)
	assert.Contains(t, out, "replaced 2 rows in Staff")
	assert.Contains(t, out, "ignored columns: Shoe Size")
	assert.Contains(t, out, "missing columns:")

	more := writeFile(t, "more.csv", "id,storeId,name\nst3,s1,Cy\n")
	out, err = run(t, book, "import", more, "--table", core.TableStaff, "--append")
	require.NoError(t, err)
	assert.Contains(t, out, "appended 1 rows in Staff")

	assert.Len(t, exportRows(t, book, "--table", core.TableStaff), 3)

	out, err = run(t, book, "import", csv, "--table", core.TableStaff)
	require.NoError(t, err)
	assert.Len(t, exportRows(t, book, "--table", core.TableStaff), 2, "replace drops appended rows")
}

func TestImportErrors(t *testing.T) {
	book := workbook(t)
	csv := writeFile(t, "staff.csv", "id,name\nst1,Ann\n")

	_, err := run(t, book, "import", csv, "--table", "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, book, "import", writeFile(t, "staff.pdf", "x"), "--table", core.TableStaff)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportByStoreToFile(t *testing.T) {
	book := workbook(t)
	csv := writeFile(t, "staff.csv", "id,storeId,name\nst1,s1,Ann\nst2,s2,Bob\n")
	_, err := run(t, book, "import", csv, "--table", core.TableStaff)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out.json")
	_, err = run(t, book, "export", "--store", "s1", "--table", core.TableStaff, "--output", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got[core.TableStaff], 1)
	assert.Equal(t, "st1", got[core.TableStaff][0]["id"])
}

func TestExportUnknownTable(t *testing.T) {
	_, err := run(t, workbook(t), "export", "--table", "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBackupWritesSnapshot(t *testing.T) {
	book := workbook(t)
	dir := t.TempDir()

	out, err := run(t, book, "--format", "json", "backup", "--dir", dir, "--keep", "0")
	require.NoError(t, err)

	var res struct {
		Path   string `json:"path"`
		Pruned int    `json:"pruned"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.FileExists(t, res.Path)
	assert.Equal(t, dir, filepath.Dir(res.Path))
	assert.True(t, strings.HasSuffix(res.Path, ".xlsx.xz"), res.Path)
	assert.Zero(t, res.Pruned)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, workbook(t), "--format", "xml", "tables")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
	assert.Equal(t, "x: "+assert.AnError.Error(), WrapExitError(ExitCommandError, "x", assert.AnError).Error())
}
