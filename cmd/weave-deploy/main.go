// Command weave-deploy publishes a built site's output directory to a
// GitHub Pages branch. It is a separate binary from the core build,
// using an oauth2.StaticTokenSource + go-github client to push a tree of
// rendered files as a single commit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/xerrors"

	weave "github.com/weave-ssg/weave"
)

var (
	accessToken = flag.String("github_access_token", "", "oauth2 GitHub access token")
	repo        = flag.String("repo", "", "GitHub repository to publish to, owner/name")
	branch      = flag.String("branch", "gh-pages", "branch to publish to")
	dir         = flag.String("dir", "output", "directory to publish, the site's Configuration.Output")
	message     = flag.String("message", "weave-deploy publish", "commit message for the publish commit")
)

func deploy(ctx context.Context) error {
	if *repo == "" {
		return xerrors.New("-repo is required, owner/name")
	}
	parts := strings.SplitN(*repo, "/", 2)
	if len(parts) != 2 {
		return xerrors.Errorf("-repo %q must be owner/name", *repo)
	}
	owner, name := parts[0], parts[1]

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: *accessToken})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	entries, err := collectEntries(*dir)
	if err != nil {
		return xerrors.Errorf("collect %s: %w", *dir, err)
	}
	if len(entries) == 0 {
		return xerrors.Errorf("no files found under %s", *dir)
	}

	ref, _, err := client.Git.GetRef(ctx, owner, name, "refs/heads/"+*branch)
	var baseTree *string
	if err == nil {
		baseTree = ref.Object.SHA
	}

	tree, _, err := client.Git.CreateTree(ctx, owner, name, "", entries)
	if err != nil {
		return xerrors.Errorf("create tree: %w", err)
	}

	parents := []*github.Commit{}
	if baseTree != nil {
		parentCommit, _, err := client.Git.GetCommit(ctx, owner, name, *baseTree)
		if err == nil {
			parents = append(parents, parentCommit)
		}
	}

	commit, _, err := client.Git.CreateCommit(ctx, owner, name, &github.Commit{
		Message: message,
		Tree:    tree,
		Parents: parents,
	}, nil)
	if err != nil {
		return xerrors.Errorf("create commit: %w", err)
	}

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + *branch),
		Object: &github.GitObject{SHA: commit.SHA},
	}
	if ref != nil {
		_, _, err = client.Git.UpdateRef(ctx, owner, name, newRef, true)
	} else {
		_, _, err = client.Git.CreateRef(ctx, owner, name, newRef)
	}
	if err != nil {
		return xerrors.Errorf("update ref %s: %w", *branch, err)
	}

	log.Printf("published %d files to %s@%s (%s)", len(entries), *repo, *branch, commit.GetSHA())
	return nil
}

func collectEntries(root string) ([]*github.TreeEntry, error) {
	var entries []*github.TreeEntry
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		body, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		entries = append(entries, &github.TreeEntry{
			Path:    github.String(filepath.ToSlash(rel)),
			Mode:    github.String("100644"),
			Type:    github.String("blob"),
			Content: github.String(string(body)),
		})
		return nil
	})
	return entries, err
}

func main() {
	flag.Parse()
	ctx, canc := weave.InterruptibleContext()
	defer canc()
	if err := deploy(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
