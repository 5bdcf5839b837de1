package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresPlaceholders(t *testing.T) {
	_, err := New("no placeholders here")
	assert.Error(t, err)

	_, err = New("only {context}")
	assert.Error(t, err)

	_, err = New("{context} and {question}")
	assert.NoError(t, err)
}

func TestRender(t *testing.T) {
	tpl, err := New("#Context:\n{context}\n\n#Question:\n{question}\n\n#Answer:")
	require.NoError(t, err)

	out := tpl.Render("2025-03-01에 '김밥'(간편식)이 5개 판매되었습니다.", "3월에 김밥 많이 팔렸어?")
	assert.Contains(t, out, "#Context:\n2025-03-01에 '김밥'(간편식)이 5개 판매되었습니다.")
	assert.Contains(t, out, "#Question:\n3월에 김밥 많이 팔렸어?")
	assert.NotContains(t, out, "{context}")
	assert.NotContains(t, out, "{question}")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	content := "_type: prompt\ninput_variables: [\"context\", \"question\"]\ntemplate: |\n  {context}\n  {question}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ctx\nq\n", tpl.Render("ctx", "q"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
