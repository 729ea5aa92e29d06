package local

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/treepack/pkg/tree"
)

// Commit is one entry of the commit log.
type Commit struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// History returns the commit count and last change date of every file ever
// committed under dir, keyed by path relative to dir.
func History(ctx context.Context, dir string) (map[string]tree.History, error) {
	out, err := runGit(ctx, dir, "log", "--relative", "--no-renames", "--name-only", "--format=%x00%ct", "--", ".")
	if err != nil {
		return nil, err
	}
	return parseHistory(bytes.NewReader(out))
}

// parseHistory reads `git log --name-only --format=%x00%ct` output. Each
// commit starts with a NUL-prefixed unix timestamp followed by the touched
// paths, newest commit first.
func parseHistory(r io.Reader) (map[string]tree.History, error) {
	hist := make(map[string]tree.History)
	var when time.Time
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if ts, ok := strings.CutPrefix(line, "\x00"); ok {
			sec, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse commit time %q: %w", ts, err)
			}
			when = time.Unix(sec, 0).UTC()
			continue
		}
		h := hist[line]
		h.Count++
		if when.After(h.LastChange) {
			h.LastChange = when
		}
		hist[line] = h
	}
	return hist, sc.Err()
}

// Commits returns up to limit commits touching dir, newest first. A limit
// of 0 returns all of them.
func Commits(ctx context.Context, dir string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H%x1f%an%x1f%ct%x1f%s"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	out, err := runGit(ctx, dir, append(args, "--", ".")...)
	if err != nil {
		return nil, err
	}
	return parseCommits(bytes.NewReader(out))
}

func parseCommits(r io.Reader) ([]Commit, error) {
	var commits []Commit
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), "\x1f", 4)
		if len(fields) != 4 {
			continue
		}
		sec, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse commit time %q: %w", fields[2], err)
		}
		commits = append(commits, Commit{
			SHA:     fields[0],
			Author:  fields[1],
			Date:    time.Unix(sec, 0).UTC(),
			Message: fields[3],
		})
	}
	return commits, sc.Err()
}

// CommitChanges returns the files a commit created, modified or deleted,
// relative to dir.
func CommitChanges(ctx context.Context, dir, rev string) ([]tree.Change, error) {
	if strings.HasPrefix(rev, "-") {
		return nil, fmt.Errorf("invalid revision %q", rev)
	}
	out, err := runGit(ctx, dir, "show", "--relative", "--no-renames", "--name-status", "--format=", rev, "--", ".")
	if err != nil {
		return nil, err
	}
	return parseNameStatus(bytes.NewReader(out))
}

// parseNameStatus reads `--name-status` lines such as "M\tsrc/main.go".
func parseNameStatus(r io.Reader) ([]tree.Change, error) {
	var changes []tree.Change
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		status, path, ok := strings.Cut(sc.Text(), "\t")
		if !ok || status == "" {
			continue
		}
		kind := tree.ChangeModify
		switch status[0] {
		case 'A':
			kind = tree.ChangeCreate
		case 'D':
			kind = tree.ChangeDelete
		}
		changes = append(changes, tree.Change{Path: path, Kind: kind})
	}
	return changes, sc.Err()
}

// runGit shells out to git in dir.
func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("commit history requires git on PATH")
	}

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}
