// Package tmsu wraps the external tmsu command-line tool. All operations are
// scoped to a working directory because tmsu databases are directory-relative.
package tmsu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tagdeck/internal/execx"
)

var (
	// ErrUnavailable means no usable tmsu binary is configured.
	ErrUnavailable = errors.New("tmsu not available")
	// ErrEmptyTag means the tag normalized to nothing; no process is invoked.
	ErrEmptyTag = errors.New("empty tag name")
)

// Runner abstracts command execution for tests.
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) execx.Result
}

// Client issues typed tmsu operations over a Runner.
type Client struct {
	path string
	run  Runner
}

// NewClient resolves tmsu from PATH. An empty resolution is not an error;
// the client degrades to unavailable results until SetPath succeeds.
func NewClient(run Runner) *Client {
	c := &Client{run: run}
	if path, err := exec.LookPath("tmsu"); err == nil {
		c.path = path
		zap.S().Infow("found tmsu", "path", path)
	} else {
		zap.S().Warn("tmsu not found in PATH")
	}
	return c
}

// Available reports whether a tmsu binary is configured.
func (c *Client) Available() bool { return c.path != "" }

// Path returns the configured binary path, empty if unavailable.
func (c *Client) Path() string { return c.path }

// SetPath installs an explicit binary path after verifying it is an
// existing regular file.
func (c *Client) SetPath(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("invalid tmsu path %q: %w", path, ErrUnavailable)
	}
	c.path = path
	zap.S().Infow("tmsu path configured", "path", path)
	return nil
}

// NormalizeTag trims a raw tag and joins internal whitespace with
// underscores. The result may be empty.
func NormalizeTag(raw string) string {
	return strings.Join(strings.Fields(raw), "_")
}

// AllTags returns every distinct tag name known to the store at dir, sorted
// ascending. A missing database is a successful empty result: tmsu reports
// it only as a diagnostic string, so this is a best-effort match on the
// message text rather than a structured signal. An unavailable tool is also
// an empty success so that a first run without tmsu stays usable.
func (c *Client) AllTags(ctx context.Context, dir string) ([]string, error) {
	if c.path == "" {
		return nil, nil
	}

	res := c.run.Run(ctx, c.path, []string{"tags"}, dir)
	if res.Succeeded {
		seen := make(map[string]bool)
		var tags []string
		for _, line := range strings.Split(res.Stdout, "\n") {
			tag := strings.TrimSpace(line)
			if tag != "" && !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
		sort.Strings(tags)
		return tags, nil
	}

	if strings.Contains(strings.ToLower(res.Stderr), "no database") {
		zap.S().Debugw("no tmsu database", "dir", dir)
		return nil, nil
	}
	return nil, diag(res)
}

// FileTags returns the tags attached to path, in the order tmsu reports
// them. tmsu emits either "name: tag tag tag" or the bare tag list; both
// forms parse to the same result. No tags is a valid empty result.
func (c *Client) FileTags(ctx context.Context, path, dir string) ([]string, error) {
	if c.path == "" {
		return nil, ErrUnavailable
	}

	res := c.run.Run(ctx, c.path, []string{"tags", path}, dir)
	if !res.Succeeded {
		return nil, diag(res)
	}
	return ParseFileTags(res.Stdout), nil
}

// ParseFileTags extracts the tag list from a `tmsu tags <path>` line.
func ParseFileTags(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	if idx := strings.Index(out, ":"); idx >= 0 {
		out = out[idx+1:]
	}
	return strings.Fields(out)
}

// Tag attaches a tag to path. The raw tag is normalized first; an empty
// normalized tag fails locally without invoking the tool.
func (c *Client) Tag(ctx context.Context, path, rawTag, dir string) error {
	if c.path == "" {
		return ErrUnavailable
	}
	tag := NormalizeTag(rawTag)
	if tag == "" {
		return ErrEmptyTag
	}

	res := c.run.Run(ctx, c.path, []string{"tag", path, tag}, dir)
	if !res.Succeeded {
		return diag(res)
	}
	zap.S().Infow("tag added", "path", path, "tag", tag)
	return nil
}

// Untag removes a tag from path.
func (c *Client) Untag(ctx context.Context, path, tag, dir string) error {
	if c.path == "" {
		return ErrUnavailable
	}

	res := c.run.Run(ctx, c.path, []string{"untag", path, tag}, dir)
	if !res.Succeeded {
		return diag(res)
	}
	zap.S().Infow("tag removed", "path", path, "tag", tag)
	return nil
}

// Files evaluates a tag expression (a bare tag name or a tmsu boolean
// expression) and returns the matching paths. Empty is a valid result.
func (c *Client) Files(ctx context.Context, expr, dir string) ([]string, error) {
	if c.path == "" {
		return nil, ErrUnavailable
	}

	res := c.run.Run(ctx, c.path, []string{"files", expr}, dir)
	if !res.Succeeded {
		return nil, diag(res)
	}
	return splitPaths(res.Stdout), nil
}

// Untagged returns files known to the store that carry no tags.
func (c *Client) Untagged(ctx context.Context, dir string) ([]string, error) {
	if c.path == "" {
		return nil, ErrUnavailable
	}

	res := c.run.Run(ctx, c.path, []string{"untagged"}, dir)
	if !res.Succeeded {
		return nil, diag(res)
	}
	return splitPaths(res.Stdout), nil
}

// Init creates a new tmsu database in dir.
func (c *Client) Init(ctx context.Context, dir string) error {
	if c.path == "" {
		return ErrUnavailable
	}

	res := c.run.Run(ctx, c.path, []string{"init"}, dir)
	if !res.Succeeded {
		return diag(res)
	}
	zap.S().Infow("initialized tmsu database", "dir", dir)
	return nil
}

func splitPaths(out string) []string {
	if out == "" {
		return nil
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func diag(res execx.Result) error {
	msg := res.Stderr
	if msg == "" {
		msg = "unknown error"
	}
	if res.Err != nil {
		return fmt.Errorf("%s: %w", msg, res.Err)
	}
	return errors.New(msg)
}
