package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeCmd_Use(t *testing.T) {
	assert.Equal(t, "summarize [doc-id]", summarizeCmd.Use)
}

func TestSummarizeCmd_HasKindFlag(t *testing.T) {
	flag := summarizeCmd.Flags().Lookup("kind")
	require.NotNil(t, flag, "kind flag should exist")
	assert.Equal(t, "abstract", flag.DefValue)
}

func TestSummarizeCmd_SummarizesDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	id := seedTestDocument("summarized")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"summarize", id})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "A stub answer.")
}

func TestSummarizeCmd_InvalidKind(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"summarize", "--kind", "haiku", "some-id"})
	defer func() {
		rootCmd.SetArgs(nil)
		summarizeKind = "abstract"
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --kind")
}

func TestSummarizeCmd_UnknownDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"summarize", "no-such-doc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
}
