package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectedExit int
	}{
		{name: "version", args: []string{"version"}, expectedExit: 0},
		{name: "help", args: []string{"--help"}, expectedExit: 0},
		{name: "missing role", args: []string{"watch"}, expectedExit: 1},
		{name: "unknown command", args: []string{"serve"}, expectedExit: 1},
		{name: "missing config file", args: []string{"--config", "does-not-exist.yaml", "refresh"}, expectedExit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			assert.Equal(t, tt.expectedExit, run(tt.args))
		})
	}
}
