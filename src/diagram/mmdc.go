package diagram

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.blogfront.dev/blogfront/src/oops"
)

// MermaidCLI renders diagrams by running the mermaid-cli binary.
type MermaidCLI struct {
	Path    string
	Timeout time.Duration

	mu    sync.Mutex
	theme Theme
}

var _ Renderer = &MermaidCLI{}

func NewMermaidCLI(path string, timeout time.Duration) *MermaidCLI {
	return &MermaidCLI{Path: path, Timeout: timeout, theme: ThemeLight}
}

func (m *MermaidCLI) SetTheme(theme Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = theme
}

func (m *MermaidCLI) Theme() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

func (m *MermaidCLI) Render(ctx context.Context, source string) (string, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "blogfront-mmdc-")
	if err != nil {
		return "", oops.New(err, "failed to create diagram work dir")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return "", oops.New(err, "failed to write diagram source")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.Path,
		"--input", in,
		"--output", out,
		"--theme", string(m.Theme()),
		"--backgroundColor", "transparent",
		"--quiet",
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", oops.New(err, "mmdc failed: %s", strings.TrimSpace(stderr.String()))
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return "", oops.New(err, "mmdc produced no output")
	}
	return string(svg), nil
}
