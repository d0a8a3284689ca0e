package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRequirePostgres(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	for _, name := range []string{"scan", "fix", "corrections"} {
		t.Run(name, func(t *testing.T) {
			root := newRootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs([]string{name})

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "POSTGRES_DSN not set")
		})
	}
}

func TestCommandsRejectArguments(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scan", "extra"})

	require.Error(t, root.Execute())
}
