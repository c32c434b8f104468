package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// maxAttempts bounds re-prompting for a value that fails verification.
const maxAttempts = 3

// Step is one parameter the operator supplies.
type Step struct {
	Key     string // path below /{env}/weather-plugin/
	EnvVar  string // config variable the parameter feeds
	Prompt  string
	Secret  bool
	Default string
	Verify  bool // check with Runner.VerifyKey
}

// Steps lists the plugin's parameters in prompt order.
func Steps() []Step {
	return []Step{
		{Key: "qweather/api_key", EnvVar: "QWEATHER_API_KEY", Prompt: "QWeather API key", Secret: true, Verify: true},
		{Key: "weather/default_location", EnvVar: "DEFAULT_LOCATION", Prompt: "Default location", Default: "广州"},
	}
}

// Runner walks the steps, writing each parameter to SSM.
type Runner struct {
	SSM     *SSMManager
	Stdin   io.Reader
	Scanner *bufio.Scanner
	Stdout  io.Writer
	Stderr  io.Writer

	Overwrite bool

	// VerifyKey tests a QWeather key. Nil skips verification.
	VerifyKey func(ctx context.Context, key string) error
}

// Run processes every step and prints the resulting *_SSM_PARAM lines to
// Stdout.
func (r *Runner) Run(ctx context.Context) error {
	if r.Scanner == nil {
		r.Scanner = bufio.NewScanner(r.Stdin)
	}

	var exports []string
	for _, step := range Steps() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := r.SSM.Path(step.Key)

		exists, err := r.SSM.Exists(ctx, path)
		if err != nil {
			return err
		}
		if exists && !r.Overwrite {
			fmt.Fprintf(r.Stderr, "  %s already set at %s, skipping\n", step.Prompt, path)
		} else {
			value, err := r.collect(ctx, step)
			if err != nil {
				return fmt.Errorf("%s: %w", step.Prompt, err)
			}
			if err := r.SSM.Put(ctx, path, value, step.Secret, r.Overwrite); err != nil {
				return err
			}
		}
		exports = append(exports, fmt.Sprintf("%s_SSM_PARAM=%s", step.EnvVar, path))
	}

	fmt.Fprintln(r.Stderr, "\nAdd these to the deployment environment:")
	for _, line := range exports {
		fmt.Fprintln(r.Stdout, line)
	}
	return nil
}

func (r *Runner) collect(ctx context.Context, step Step) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := step.Prompt
		if step.Default != "" {
			prompt += fmt.Sprintf(" [%s]", step.Default)
		}
		prompt += ": "

		var value string
		var err error
		if step.Secret {
			value, err = r.readSecret(prompt)
		} else {
			value, err = r.readLine(prompt)
		}
		if err != nil {
			return "", err
		}
		if value == "" {
			value = step.Default
		}
		if value == "" {
			fmt.Fprintln(r.Stderr, "  a value is required")
			continue
		}

		if step.Verify && r.VerifyKey != nil {
			if err := r.VerifyKey(ctx, value); err != nil {
				fmt.Fprintf(r.Stderr, "  verification failed: %v\n", err)
				continue
			}
			fmt.Fprintln(r.Stderr, "  verified")
		}
		return value, nil
	}
	return "", fmt.Errorf("no valid value after %d attempts", maxAttempts)
}

func (r *Runner) readLine(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)
	if !r.Scanner.Scan() {
		if err := r.Scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(r.Scanner.Text()), nil
}

// readSecret disables echo when stdin is a terminal and falls back to a
// plain line read otherwise.
func (r *Runner) readSecret(prompt string) (string, error) {
	if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(r.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return r.readLine(prompt)
}
