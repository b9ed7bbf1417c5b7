package cli

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/bunchhieng/uuidspace/internal/search"
	"github.com/bunchhieng/uuidspace/internal/space"
	"github.com/bunchhieng/uuidspace/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, format string) (*Commands, *bytes.Buffer) {
	t.Helper()
	s, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	sp, err := space.Open(format)
	require.NoError(t, err)

	var out bytes.Buffer
	opts := search.Options{Rand: rand.New(rand.NewPCG(1, 2))}
	return NewCommands(context.Background(), s, sp, opts, &out), &out
}

func TestParseIndex(t *testing.T) {
	sp, err := space.Open("card")
	require.NoError(t, err)

	i, err := ParseIndex("12_345", sp)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), i.Int64())

	i, err = ParseIndex("-1", sp)
	require.NoError(t, err)
	assert.Zero(t, i.Cmp(sp.Max()))

	i, err = ParseIndex("max", sp)
	require.NoError(t, err)
	assert.Zero(t, i.Cmp(sp.Max()))

	_, err = ParseIndex("twelve", sp)
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	c, out := setup(t, "uuid")

	require.NoError(t, c.Encode("0"))
	assert.Equal(t, "497dcba3-ecbf-4587-a2dd-5eb0665e6880\n", out.String())

	out.Reset()
	require.NoError(t, c.Decode("50E14F43-DD4E-412F-864D-78943EA28D91"))
	assert.Equal(t, "1\n", out.String())

	assert.Error(t, c.Decode("50e14f43-dd4e-512f-864d-78943ea28d91"))
	assert.Error(t, c.Encode("-99999999999999999999999999999999999999999"))
}

func TestDecodeCardShowsIssuer(t *testing.T) {
	c, out := setup(t, "card")

	require.NoError(t, c.Decode("1869-6353-0224-5296"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "12345", lines[0])
	assert.Contains(t, lines[1], "Airlines")
}

func TestList(t *testing.T) {
	c, out := setup(t, "uuid")

	require.NoError(t, c.List("0", 3))
	assert.Contains(t, out.String(), "497dcba3-ecbf-4587-a2dd-5eb0665e6880")
	assert.Contains(t, out.String(), "50e14f43-dd4e-412f-864d-78943ea28d91")
	assert.Contains(t, out.String(), "IDENTIFIER")
}

func TestListMarksFavorites(t *testing.T) {
	c, out := setup(t, "uuid")
	require.NoError(t, c.FavAdd("50e14f43-dd4e-412f-864d-78943ea28d91", ""))
	out.Reset()

	require.NoError(t, c.List("0", 2))
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "50e14f43") {
			assert.Contains(t, line, "★")
		}
		if strings.Contains(line, "497dcba3") {
			assert.NotContains(t, line, "★")
		}
	}
}

func TestSearch(t *testing.T) {
	c, out := setup(t, "uuid")

	require.NoError(t, c.Search("beef", "0", 2, 1))
	rows := 0
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "beef") {
			rows++
		}
	}
	assert.Equal(t, 4, rows)
	assert.Contains(t, out.String(), "history")
}

func TestCommandsLogThroughContext(t *testing.T) {
	cmds, _ := setup(t, "uuid")
	var logs bytes.Buffer
	cmds.ctx = log.WithLogger(context.Background(), log.New(log.Config{Level: "debug"}, &logs))

	require.NoError(t, cmds.Search("abc", "0", 0, 0))
	assert.Contains(t, logs.String(), `"fragment":"abc"`)

	path := filepath.Join(t.TempDir(), "favorites.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	require.NoError(t, cmds.Import(path))
	assert.Contains(t, logs.String(), "favorites imported")
}

func TestSearchUnsatisfiable(t *testing.T) {
	c, _ := setup(t, "card")

	err := c.Search("abc", "0", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XXXX-XXXX-XXXX-XXXC")
}

func TestFormats(t *testing.T) {
	c, out := setup(t, "card")

	require.NoError(t, c.Formats())
	assert.Contains(t, out.String(), "*card")
	assert.Contains(t, out.String(), "XXXXXXXX-XXXX-4XXX-VXXX-XXXXXXXXXXXX")
	assert.Contains(t, out.String(), "2^122")
}

func TestFavorites(t *testing.T) {
	c, out := setup(t, "uuid")
	id := "497dcba3-ecbf-4587-a2dd-5eb0665e6880"

	require.NoError(t, c.FavAdd(id, "origin"))
	assert.Contains(t, out.String(), "Starred")

	out.Reset()
	require.NoError(t, c.FavAdd(id, ""))
	assert.Contains(t, out.String(), "Already starred")

	assert.Error(t, c.FavAdd("not-a-uuid", ""))

	out.Reset()
	require.NoError(t, c.FavList("", 0))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "origin")

	out.Reset()
	require.NoError(t, c.FavList("card", 0))
	assert.Contains(t, out.String(), "No favorites yet.")

	err := c.FavRemove("497dcba3-ecbf-4587-a2dd-5eb0665e6881")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean")
	assert.Contains(t, err.Error(), id)

	out.Reset()
	require.NoError(t, c.FavRemove(id))
	assert.Contains(t, out.String(), "Unstarred")
}

func TestExportImport(t *testing.T) {
	c, _ := setup(t, "uuid")
	require.NoError(t, c.FavAdd("497dcba3-ecbf-4587-a2dd-5eb0665e6880", "a"))
	require.NoError(t, c.FavAdd("50e14f43-dd4e-412f-864d-78943ea28d91", "b"))

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf))

	path := filepath.Join(t.TempDir(), "favorites.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	c2, out := setup(t, "uuid")
	require.NoError(t, c2.Import(path))
	assert.Contains(t, out.String(), "2")

	out.Reset()
	require.NoError(t, c2.List("0", 2))
	assert.Equal(t, 2, strings.Count(out.String(), "★")-1) // header column
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("abc", "abc"))
	assert.Equal(t, 1, levenshteinDistance("abc", "abd"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestPrintTableAlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, []column{{title: "A"}, {title: "B", align: alignRight}}, [][]string{
		{"★", "12"},
		{"xyz", "3"},
	}))
	plain := regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(buf.String(), "")
	lines := strings.Split(strings.TrimRight(plain, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[3], "│ ★   │")
	assert.Contains(t, lines[4], "│  3 │")
}
