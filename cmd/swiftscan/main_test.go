package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const card = "Jane Doe\nCTO\nAcme Corp\njane.doe@acme.com\n+1 555 123 4567\n"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, card, "parse")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Jane Doe", got["name"])
	assert.Equal(t, "jane.doe@acme.com", got["email"])
	assert.Equal(t, "CTO", got["role"])
	assert.Equal(t, "Acme Corp", got["company"])
}

func TestParseCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.txt")
	require.NoError(t, os.WriteFile(path, []byte(card), 0o644))

	out, err := run(t, "", "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "jane.doe@acme.com"`)
}

func TestParseCommand_MissingFile(t *testing.T) {
	_, err := run(t, "", "parse", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestDraftCommand(t *testing.T) {
	out, err := run(t, card, "draft", "--from-name", "Sam", "--template", "1")
	require.NoError(t, err)

	var got struct {
		Draft struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		} `json:"draft"`
		NextIndex int    `json:"nextIndex"`
		Mailto    string `json:"mailto"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.Draft.Subject)
	assert.Contains(t, got.Draft.Body, "Sam")
	assert.Equal(t, 2, got.NextIndex)
	assert.True(t, strings.HasPrefix(got.Mailto, "mailto:jane.doe@acme.com?"))
}

func TestHistoryShow_InvalidID(t *testing.T) {
	_, err := run(t, "", "history", "show", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record id")
}
