package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"restorebot/internal/core/domain"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog/log"
)

const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"

	genericFailure = "external tool failed"
	missingOutput  = "processing tool did not produce output file"
)

// Invocation captures one resolved command and its outcome.
type Invocation struct {
	Template string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Diagnostic picks stderr, then stdout, then fallback.
func (i Invocation) Diagnostic(fallback string) string {
	if s := strings.TrimSpace(i.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(i.Stdout); s != "" {
		return s
	}
	return fallback
}

// Invoker runs command templates through a shell.
type Invoker struct {
	shell   string
	timeout time.Duration
}

// NewInvoker creates an invoker. A zero timeout lets tools run until they exit.
func NewInvoker(timeout time.Duration) *Invoker {
	return &Invoker{shell: "/bin/sh", timeout: timeout}
}

// Resolve substitutes the shell-escaped paths into the template.
func Resolve(commandTemplate, inputPath, outputPath string) string {
	return strings.NewReplacer(
		InputPlaceholder, shellescape.Quote(inputPath),
		OutputPlaceholder, shellescape.Quote(outputPath),
	).Replace(commandTemplate)
}

// Invoke runs the template synchronously and returns the absolute output path. Any file already at the output
// path is removed first; the call only succeeds when the command exits 0 and wrote the output file. On timeout
// the whole process group of the command is killed.
func (i *Invoker) Invoke(ctx context.Context, commandTemplate, inputPath, outputPath string) (string, error) {
	in, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("error resolving input path %w", err)
	}
	out, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("error resolving output path %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory %w", err)
	}
	// a leftover file must not pass the output check
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("error removing previous output %w", err)
	}

	inv := Invocation{Template: commandTemplate, Command: Resolve(commandTemplate, in, out)}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	l := log.With().Str("command", inv.Command).Logger()
	l.Debug().Msg("running external tool")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, i.shell, "-c", inv.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	killProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()

	if runErr != nil {
		inv.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			inv.ExitCode = exitErr.ExitCode()
		}

		fallback := genericFailure
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			fallback = fmt.Sprintf("external tool timed out after %s", i.timeout)
			runErr = errors.Join(runErr, ctx.Err())
		}

		l.Error().Int("exitCode", inv.ExitCode).Str("stderr", inv.Stderr).Msg("external tool failed")
		return "", &domain.ExternalToolError{
			Command:    inv.Command,
			ExitCode:   inv.ExitCode,
			Diagnostic: inv.Diagnostic(fallback),
			Err:        runErr,
		}
	}

	if _, err := os.Stat(out); err != nil {
		l.Error().Str("output", out).Msg("external tool exited without writing output")
		return "", &domain.ExternalToolError{
			Command:    inv.Command,
			Diagnostic: missingOutputDiagnostic(inv),
			Err:        err,
		}
	}

	l.Debug().Dur("took", time.Since(start)).Str("output", out).Msg("external tool finished")

	return out, nil
}

func missingOutputDiagnostic(inv Invocation) string {
	diag := inv.Diagnostic("")
	if diag == "" {
		return missingOutput
	}
	return missingOutput + ": " + diag
}
