package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const teamGitignore = `.ipynb_checkpoints/
__pycache__/
*.pyc
.env
.DS_Store
`

// initTeamRepo makes dir a git repository with an initial commit. An
// existing repository is left alone. Returns true when one was created.
func initTeamRepo(dir string) (bool, error) {
	_, err := git.PlainOpen(dir)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return false, fmt.Errorf("open git repo: %w", err)
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return false, fmt.Errorf("init git repo: %w", err)
	}

	if _, err := writeIfAbsent(filepath.Join(dir, ".gitignore"), []byte(teamGitignore), 0644); err != nil {
		return true, fmt.Errorf("write .gitignore: %w", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return true, fmt.Errorf("get worktree: %w", err)
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return true, fmt.Errorf("stage files: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return true, fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return true, nil
	}

	if _, err := w.Commit("Initialize team workspace", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "SignalPilot",
			Email: "sp@localhost",
			When:  time.Now(),
		},
	}); err != nil {
		return true, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
