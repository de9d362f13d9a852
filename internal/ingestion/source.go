package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

var (
	// ErrSourceNotFound is returned when a local source does not exist
	ErrSourceNotFound = errors.New("source not found")
	// ErrNotDirectory is returned when a local source is a regular file
	ErrNotDirectory = errors.New("source is not a directory")
	// ErrCloneFailed wraps remote clone failures
	ErrCloneFailed = errors.New("clone failed")
)

var shorthandHosts = []string{"github.com/", "gitlab.com/", "bitbucket.org/"}

// IsRemote reports whether source names a remote git repository
func IsRemote(source string) bool {
	s := strings.TrimSpace(source)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "git@") || strings.HasPrefix(s, "ssh://") {
		return true
	}
	for _, host := range shorthandHosts {
		if strings.HasPrefix(s, host) {
			return true
		}
	}
	return false
}

// CloneURL expands host shorthand such as github.com/owner/repo to https
func CloneURL(source string) string {
	s := strings.TrimSpace(source)
	for _, host := range shorthandHosts {
		if strings.HasPrefix(s, host) {
			return "https://" + s
		}
	}
	return s
}

// Cloner fetches a remote repository into dir
type Cloner interface {
	Clone(ctx context.Context, url, dir, token string) error
}

// GitCloner performs shallow clones with go-git
type GitCloner struct{}

// Clone runs a depth-1 clone. A non-empty token is sent as HTTP basic auth.
func (GitCloner) Clone(ctx context.Context, url, dir, token string) error {
	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if token != "" && !strings.HasPrefix(url, "git@") {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCloneFailed, url, err)
	}
	return nil
}

// resolveLocal validates a local source and returns its absolute path
func resolveLocal(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", source, err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, source)
	}
	return abs, nil
}
