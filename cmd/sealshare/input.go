package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/TheMichaelB/sealshare/internal/models"
)

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(args []string, limit int64) ([]byte, error) {
	var r io.Reader = stdin
	name := "stdin"

	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
		name = args[0]
	}

	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", name, models.ErrContentTooLarge, limit)
	}

	return data, nil
}

// writeOutput writes to path with owner-only permissions, or to stdout.
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errNoTerminal       = errors.New("no terminal to prompt for a password (use --password)")
)

// Prompts use the controlling terminal so stdin can carry the snippet.
var (
	ttyPath      = "/dev/tty"
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// openTerminal returns the terminal to prompt on and a func releasing it.
func openTerminal() (*os.File, func(), error) {
	if tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0); err == nil {
		if isTerminal(int(tty.Fd())) {
			return tty, func() { tty.Close() }, nil
		}
		tty.Close()
	}

	// Without /dev/tty an interactive stdin still works
	if f, ok := stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		return f, func() {}, nil
	}
	return nil, nil, errNoTerminal
}

func canPrompt() bool {
	_, release, err := openTerminal()
	if err != nil {
		return false
	}
	release()
	return true
}

func promptPassword(prompt string) (string, error) {
	tty, release, err := openTerminal()
	if err != nil {
		return "", err
	}
	defer release()

	fmt.Fprint(tty, prompt)
	password, err := readPassword(int(tty.Fd()))
	fmt.Fprintln(tty)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(password), nil
}

// promptNewPassword asks twice and rejects empty or mismatched input.
func promptNewPassword() (string, error) {
	first, err := promptPassword("Password: ")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(first) == "" {
		return "", fmt.Errorf("password must not be empty")
	}

	second, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}

	return first, nil
}

// resolvePassword returns the flag value or prompts when asked to.
func resolvePassword(flagValue string, prompt, confirm bool) (string, error) {
	if flagValue != "" || !prompt {
		return flagValue, nil
	}
	if confirm {
		return promptNewPassword()
	}
	return promptPassword("Password: ")
}
