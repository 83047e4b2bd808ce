package analyzer

import (
	git "github.com/go-git/go-git/v5"
)

// detectOrigin returns the project's origin remote URL, or empty when
// the root is not a git checkout or has no origin remote.
func detectOrigin(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
