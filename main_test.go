package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func callMain() (int, string) {
	var exitCode int
	oldExit := exit
	defer func() { exit = oldExit }()
	exit = func(code int) {
		exitCode = code
		panic("exit")
	}

	// Capture output
	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Run main in a goroutine
	done := make(chan bool)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if r != "exit" {
					panic(r)
				}
			}
			done <- true
		}()
		RealMain()
	}()

	// Copy output in another goroutine
	outputDone := make(chan bool)
	go func() {
		_, _ = io.Copy(&buf, r)
		outputDone <- true
	}()

	// Wait for main to finish
	<-done
	w.Close()
	os.Stdout = oldStdout
	<-outputDone

	return exitCode, buf.String()
}

func TestRealMain(t *testing.T) {
	// Save original args
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name           string
		args           []string
		expectedExit   int
		expectedOutput string
	}{
		{
			name:           "no arguments",
			args:           []string{"blog"},
			expectedExit:   1,
			expectedOutput: "Usage: blog <command>",
		},
		{
			name:           "help command",
			args:           []string{"blog", "help"},
			expectedExit:   0,
			expectedOutput: "Usage: blog <command> [flags] [arguments]",
		},
		{
			name:           "version command",
			args:           []string{"blog", "version"},
			expectedExit:   0,
			expectedOutput: "blog version " + CliVersion,
		},
		{
			name:           "unknown command",
			args:           []string{"blog", "unknown"},
			expectedExit:   1,
			expectedOutput: "Unknown command: unknown",
		},
		{
			name:           "restore without file",
			args:           []string{"blog", "restore", "-db", filepath.Join(t.TempDir(), "db")},
			expectedExit:   1,
			expectedOutput: "Error: backup file path required for restore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			exitCode, output := callMain()

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestInitCommand(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	dbPath := filepath.Join(t.TempDir(), "badger")
	os.Args = []string{"blog", "init", "-db", dbPath}

	exitCode, output := callMain()
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, output, "Database initialized successfully")
	assert.DirExists(t, dbPath)
}
