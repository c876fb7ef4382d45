package service

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

type Cloner interface {
	Clone(ctx context.Context, url, branch, dir string) error
}

// GitCloner makes a shallow single-branch clone with go-git.
type GitCloner struct{}

func NewGitCloner() *GitCloner {
	return &GitCloner{}
}

func (gc *GitCloner) Clone(ctx context.Context, url, branch, dir string) error {
	opts := &git.CloneOptions{
		URL:          url,
		SingleBranch: true,
		Depth:        1,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	_, err := git.PlainCloneContext(ctx, dir, false, opts)
	return err
}
