// Package command transcribes clips by running an external program. The
// program receives --audio <clip> and --language <code> after its configured
// arguments and prints {"text": "..."} on stdout.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	langpkg "voicecorpus/internal/language"
	"voicecorpus/internal/services"
)

const maxStderr = 512

// Recognizer runs one process per clip.
type Recognizer struct {
	argv []string
}

type result struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// New parses a shell-style command line.
func New(commandLine string) (*Recognizer, error) {
	args, err := Parse(commandLine)
	if err != nil {
		return nil, err
	}
	return &Recognizer{argv: args}, nil
}

// Parse splits a command line into argv using shell quoting rules.
func Parse(commandLine string) ([]string, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(commandLine)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "command", "parse", "transcription command", err)
	}
	if len(args) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "command", "parse", "transcription command is empty", nil)
	}
	return args, nil
}

// Binary returns the program the recognizer launches.
func (r *Recognizer) Binary() string {
	return r.argv[0]
}

// Args returns the full argument list for one clip.
func (r *Recognizer) Args(audioPath, language string) []string {
	args := append([]string{}, r.argv[1:]...)
	args = append(args, "--audio", audioPath)
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// Transcribe runs the command for one clip and decodes its JSON output.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary(), r.Args(audioPath, language)...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", services.Wrap(services.ErrConfiguration, "command", "run", r.Binary()+" not found", err)
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr]
		}
		return "", services.Wrap(services.ErrExternalTool, "command", "run", fmt.Sprintf("%s: %s", filepath.Base(audioPath), msg), err)
	}

	var resp result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "command", "decode output", filepath.Base(audioPath), err)
	}
	if resp.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "command", "run", resp.Error, nil)
	}
	return resp.Text, nil
}
