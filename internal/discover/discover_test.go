package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
}

func TestNotebooksWalksDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.ipynb"))
	touch(t, filepath.Join(root, "a.ipynb"))
	touch(t, filepath.Join(root, "notes.md"))
	touch(t, filepath.Join(root, "sub", "c.IPYNB"))
	touch(t, filepath.Join(root, ".ipynb_checkpoints", "a-checkpoint.ipynb"))
	touch(t, filepath.Join(root, "drafts", "d.ipynb"))
	touch(t, filepath.Join(root, "scratch.ipynb"))
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFile), []byte("# local\ndrafts/\nscratch*\n"), 0o644))

	got, err := Notebooks([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.ipynb"),
		filepath.Join(root, "b.ipynb"),
		filepath.Join(root, "sub", "c.IPYNB"),
	}, got)
}

func TestNotebooksKeepsExplicitFilesAndDedupes(t *testing.T) {
	root := t.TempDir()
	nb := filepath.Join(root, "x.ipynb")
	touch(t, nb)

	got, err := Notebooks([]string{nb, root, nb})
	require.NoError(t, err)
	assert.Equal(t, []string{nb}, got)
}

func TestNotebooksMissingPath(t *testing.T) {
	_, err := Notebooks([]string{filepath.Join(t.TempDir(), "absent.ipynb")})
	assert.Error(t, err)
}

func TestLoadIgnoreRulesSkipsCommentsAndBlanks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFile), []byte("\n# c\n  old/  \n*.tmp.ipynb\n"), 0o644))

	rules, err := LoadIgnoreRules(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"old/", "*.tmp.ipynb"}, rules)

	none, err := LoadIgnoreRules(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMatcherDefaults(t *testing.T) {
	m := NewMatcher(nil)
	assert.True(t, m.ShouldIgnore(".ipynb_checkpoints", true))
	assert.True(t, m.ShouldIgnore("nested/.ipynb_checkpoints/x.ipynb", false))
	assert.False(t, m.ShouldIgnore("analysis.ipynb", false))
}
