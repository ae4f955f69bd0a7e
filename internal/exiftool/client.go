// Package exiftool fetches structured file metadata via the external
// exiftool binary.
package exiftool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"tagdeck/internal/execx"
)

// Metadata holds either a map of namespaced keys ("File:FileSize",
// "EXIF:Model", ...) to scalar values, or an error reason. The two are
// mutually exclusive: a failed fetch never partially populates Fields.
type Metadata struct {
	Fields map[string]any
	Err    string
}

// Failed reports whether this metadata carries an error instead of data.
func (m Metadata) Failed() bool { return m.Err != "" }

// Get returns the value for a namespaced key, or nil.
func (m Metadata) Get(key string) any { return m.Fields[key] }

// Runner abstracts command execution for tests.
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) execx.Result
}

// Client fetches metadata for single files.
type Client struct {
	path string
	run  Runner
}

// NewClient resolves exiftool from PATH; absence degrades Fetch to
// error-tagged results rather than failing construction.
func NewClient(run Runner) *Client {
	c := &Client{run: run}
	if path, err := exec.LookPath("exiftool"); err == nil {
		c.path = path
		zap.S().Infow("found exiftool", "path", path)
	} else {
		zap.S().Warn("exiftool not found in PATH")
	}
	return c
}

// Available reports whether an exiftool binary is configured.
func (c *Client) Available() bool { return c.path != "" }

// Path returns the configured binary path, empty if unavailable.
func (c *Client) Path() string { return c.path }

// SetPath installs an explicit binary path after verifying it exists.
func (c *Client) SetPath(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("invalid exiftool path %q", path)
	}
	c.path = path
	zap.S().Infow("exiftool path configured", "path", path)
	return nil
}

// Fetch returns metadata for one file. It fails fast, without invoking the
// tool, when the binary is unconfigured or the file does not exist. The tool
// is expected to emit a single-element JSON array; anything else becomes an
// error-tagged Metadata.
func (c *Client) Fetch(ctx context.Context, path string) Metadata {
	if c.path == "" {
		return Metadata{Err: "exiftool not available"}
	}
	if _, err := os.Stat(path); err != nil {
		return Metadata{Err: "file not found"}
	}

	res := c.run.Run(ctx, c.path, []string{"-json", "-G", path}, "")
	if !res.Succeeded || res.Stdout == "" {
		msg := res.Stderr
		if msg == "" {
			msg = "no metadata available"
		}
		return Metadata{Err: msg}
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &records); err != nil {
		zap.S().Errorw("exiftool output parse failed", "path", path, "err", err)
		return Metadata{Err: fmt.Sprintf("JSON parse error: %v", err)}
	}
	if len(records) == 0 {
		return Metadata{Err: "no metadata available"}
	}
	return Metadata{Fields: records[0]}
}
