// Package query resolves navigation selections into concrete, deduplicated,
// existence-filtered file lists.
package query

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// TagStore is the subset of the tag store the resolver needs.
type TagStore interface {
	AllTags(ctx context.Context, dir string) ([]string, error)
	Files(ctx context.Context, expr, dir string) ([]string, error)
	Untagged(ctx context.Context, dir string) ([]string, error)
}

// Resolver turns descriptors into ordered file lists.
type Resolver struct {
	store TagStore
}

// NewResolver returns a resolver backed by the given tag store.
func NewResolver(store TagStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve materializes the file set named by d. scope is the tag store's
// working directory; store-reported relative paths are resolved against it.
// Every returned path exists on disk at resolution time.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor, scope string) ([]Entry, error) {
	switch d.Kind {
	case Directory:
		return r.resolveDirectory(d.Dir)
	case TagQuery:
		paths, err := r.store.Files(ctx, d.Expr, scope)
		if err != nil {
			return nil, err
		}
		return entriesFromPaths(paths, scope), nil
	case AllTagged:
		return r.resolveAllTagged(ctx, scope)
	case Untagged:
		paths, err := r.store.Untagged(ctx, scope)
		if err != nil {
			return nil, err
		}
		return entriesFromPaths(paths, scope), nil
	default:
		return nil, nil
	}
}

func (r *Resolver) resolveDirectory(dir string) ([]Entry, error) {
	listed, err := ListDir(dir)
	if err != nil {
		return nil, err
	}
	var files []Entry
	for _, e := range listed {
		if !e.IsDir {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
	return files, nil
}

// resolveAllTagged unions `files <tag>` over every known tag. This costs one
// tmsu invocation per tag; tmsu has no portable "any tag" query primitive.
func (r *Resolver) resolveAllTagged(ctx context.Context, scope string) ([]Entry, error) {
	tags, err := r.store.AllTags(ctx, scope)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, tag := range tags {
		paths, err := r.store.Files(ctx, tag, scope)
		if err != nil {
			zap.S().Warnw("tag query failed during all-tagged union", "tag", tag, "err", err)
			continue
		}
		for _, p := range paths {
			p = absolve(p, scope)
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	return entriesFromAbsolute(all), nil
}

func entriesFromPaths(paths []string, scope string) []Entry {
	seen := make(map[string]bool)
	var abs []string
	for _, p := range paths {
		p = absolve(p, scope)
		if !seen[p] {
			seen[p] = true
			abs = append(abs, p)
		}
	}
	return entriesFromAbsolute(abs)
}

func entriesFromAbsolute(paths []string) []Entry {
	sort.Strings(paths)
	var entries []Entry
	for _, p := range paths {
		if e, ok := entryFromPath(p); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func absolve(path, scope string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(scope, path)
}
