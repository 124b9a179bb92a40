package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/config"
	"github.com/joss/promptsmith/internal/logging"
	"github.com/joss/promptsmith/internal/storage"
)

// exitOnError prints the error to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// isTTY reports whether both stdin and stdout are terminals.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// readDraft resolves the draft prompt: positional args first, otherwise
// prompt for a line on stdin.
func readDraft(args []string) (string, error) {
	if len(args) > 0 {
		draft := strings.TrimSpace(strings.Join(args, " "))
		if draft != "" {
			return draft, nil
		}
	}

	fmt.Print("Enter the prompt to optimize: ")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no draft prompt provided")
	}

	draft := strings.TrimSpace(scanner.Text())
	if draft == "" {
		return "", fmt.Errorf("no draft prompt provided")
	}
	return draft, nil
}

// buildBackend creates the generation backend from flags and environment.
func buildBackend(backendID, model string) (backend.Backend, error) {
	env := config.Env()

	if backendID == "" {
		backendID = env.Backend
	}
	if model == "" {
		model = env.Model
	}

	var opts []backend.ConfigOption
	if model != "" {
		opts = append(opts, backend.WithModel(model))
	}
	return backend.Default.CreateByID(backendID, opts...)
}

// openLedger opens the run ledger under the data directory.
func openLedger() (*storage.Ledger, error) {
	return storage.Open(config.GetPaths().Data)
}

// redirectLogs sends structured log output to the log file while the TUI
// owns the terminal. The returned func restores stderr.
func redirectLogs() func() {
	if err := config.EnsureDir(config.GetPaths().Home); err != nil {
		return func() {}
	}
	f, err := os.OpenFile(config.Path("promptsmith.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return func() {}
	}
	logging.SetOutput(f)
	return func() {
		logging.SetOutput(os.Stderr)
		f.Close()
	}
}
