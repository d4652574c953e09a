package main

import (
	"bytes"
	"testing"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "watch", "status", "history", "prune", "reset", "setup", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("metrics-addr"))
}

func TestVersionCmd(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), appName+" version "+Version)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Category", "Count"}, []btable.Row{{"Cleanings", "4"}})

	assert.Contains(t, out, "Category")
	assert.Contains(t, out, "Cleanings")
	assert.Contains(t, out, "4")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 event", plural(1, "event"))
	assert.Equal(t, "0 events", plural(0, "event"))
	assert.Equal(t, "12 events", plural(12, "event"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("https://portal.example.com"))
	assert.Error(t, validateURL("portal.example.com"))
	assert.Error(t, validateURL(""))

	assert.NoError(t, validateRequired("DSN")("user@/db"))
	assert.EqualError(t, validateRequired("DSN")("  "), "DSN is required")
}
