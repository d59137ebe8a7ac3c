// Package gitsource reads drawing snapshots committed to a git repository,
// so two revisions of the same file can be compared directly.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const scheme = "git://"

// URI builds the snapshot URI of path at revision rev, e.g. git://HEAD~1:plans/a.json.
func URI(rev, path string) string {
	return scheme + rev + ":" + path
}

// ParseURI splits a git:// URI into revision and path.
func ParseURI(uri string) (rev, path string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("not a git:// uri: %q", uri)
	}
	rev, path, ok := strings.Cut(strings.TrimPrefix(uri, scheme), ":")
	if !ok || rev == "" || path == "" {
		return "", "", fmt.Errorf("git uri must look like git://<revision>:<path>: %q", uri)
	}
	return rev, strings.TrimPrefix(path, "/"), nil
}

// Store implements domain.SnapshotReader over the repository at RepoPath.
type Store struct {
	RepoPath string
}

func New(repoPath string) *Store {
	return &Store{RepoPath: repoPath}
}

// IsGitRepo reports whether RepoPath is inside a git work tree.
func (s *Store) IsGitRepo() bool {
	_, err := s.open()
	return err == nil
}

// CommitHash resolves rev to a full commit hash.
func (s *Store) CommitHash(rev string) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	return hash.String(), nil
}

// Read returns the contents of the file named by a git:// URI.
// An unknown revision or a path absent at that revision is ErrSnapshotNotFound.
func (s *Store) Read(_ context.Context, uri string) ([]byte, error) {
	rev, path, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("revision %s: %w", rev, domain.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}

	f, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", path, rev, domain.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}

	contents, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	return []byte(contents), nil
}

func (s *Store) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(s.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repo: %w", err)
	}
	return repo, nil
}
