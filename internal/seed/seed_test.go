package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestParseFile_MultiDocument(t *testing.T) {
	files, err := ParseFile([]byte(`
table: Issues
records:
  - id: recI3
    created: 2024-03-01
    fields:
      Issue Number: 3
      Status: Published
      Publish Date: 2024-03-01
---
table: Articles
records:
  - id: recA1
    fields:
      Title: Scaling Teams
      Issue: [recI3]
`))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Issues", files[0].Table)
	assert.Equal(t, "Articles", files[1].Table)

	issue := files[0].Records[0].ToRecord()
	assert.Equal(t, "recI3", issue.ID)
	assert.False(t, issue.CreatedTime.IsZero())
	n, ok := issue.Fields.Int("Issue Number")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, "2024-03-01", issue.Fields.String("Publish Date"))

	art := files[1].Records[0].ToRecord()
	assert.Equal(t, []string{"recI3"}, art.Fields.Strings("Issue"))
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile([]byte("records: []\n"))
	assert.ErrorIs(t, err, errNoTable)

	_, err = ParseFile([]byte("table: [unclosed\n"))
	assert.Error(t, err)

	files, err := ParseFile([]byte("   \n"))
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01-issues.yaml", `
table: Issues
records:
  - id: recI1
    fields: {Issue Number: 1, Status: Published}
  - id: recI2
    fields: {Issue Number: 2, Status: Draft}
`)
	writeFile(t, dir, "nested/02-articles.yml", `
table: Articles
records:
  - id: recA1
    fields: {Title: One, Issue: [recI1]}
  - id: recA1
    fields: {Title: Duplicate}
  - fields: {Title: No Id}
`)
	writeFile(t, dir, "03-more-issues.yaml", `
table: Issues
records:
  - id: recI3
    fields: {Issue Number: 3, Status: Published}
`)
	writeFile(t, dir, "broken.yaml", "table: [\n")
	writeFile(t, dir, "notes.txt", "ignored")

	tables, warns, err := Ingest(dir)
	require.NoError(t, err)

	require.Len(t, tables["Issues"], 3)
	assert.Equal(t, "recI1", tables["Issues"][0].ID)
	assert.Equal(t, "recI3", tables["Issues"][2].ID)
	require.Len(t, tables["Articles"], 1)
	assert.Equal(t, 4, tables.Count())

	assert.Len(t, warns, 3)
}

func TestIngest_MissingDir(t *testing.T) {
	_, _, err := Ingest(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
