package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["search"])
	assert.True(t, names["toc"])
	assert.True(t, names["download"])
	assert.True(t, names["version"])
}

func TestSearchCmd_RequiresExactlyOneKeyword(t *testing.T) {
	assert.Error(t, searchCmd.Args(searchCmd, nil))
	assert.Error(t, searchCmd.Args(searchCmd, []string{"a", "b"}))
	assert.NoError(t, searchCmd.Args(searchCmd, []string{"sword"}))
}

func TestDownloadCmd_HasSourceAndFormatFlags(t *testing.T) {
	assert.NotNil(t, downloadCmd.Flags().Lookup("source"))
	assert.NotNil(t, downloadCmd.Flags().Lookup("format"))

	format, err := downloadCmd.Flags().GetString("format")
	assert.NoError(t, err)
	assert.Equal(t, "txt", format)
}

func TestTocCmd_HasSourceFlag(t *testing.T) {
	assert.NotNil(t, tocCmd.Flags().Lookup("source"))
}
