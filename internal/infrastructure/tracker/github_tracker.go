package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

// Options selects how the tracker authenticates: a personal access token or
// a GitHub App installation. Token wins when both are set.
type Options struct {
	Owner string
	Repo  string

	Token string

	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

type GitHubTracker struct {
	client *github.Client
	owner  string
	repo   string
}

var _ ports.IssueTracker = (*GitHubTracker)(nil)

func NewGitHubTracker(ctx context.Context, opts Options) (*GitHubTracker, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	owner := strings.TrimSpace(opts.Owner)
	repo := strings.TrimSpace(opts.Repo)
	if owner == "" || repo == "" {
		return nil, errors.New("github owner and repo are required")
	}

	var client *github.Client
	switch {
	case strings.TrimSpace(opts.Token) != "":
		httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
		client = github.NewClient(httpClient)
	case opts.AppID != 0:
		transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, opts.AppID, opts.InstallationID, opts.PrivateKeyPath)
		if err != nil {
			return nil, errs.Wrap(err, "load github app key")
		}
		client = github.NewClient(&http.Client{Transport: transport})
	default:
		return nil, errors.New("github token or app credentials are required")
	}

	return &GitHubTracker{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

func (t *GitHubTracker) CreateIssue(ctx context.Context, input ports.IssueRequest) (ports.IssueRef, error) {
	if ctx == nil {
		return ports.IssueRef{}, errors.New("context is required")
	}

	labels := input.Labels
	issue, resp, err := t.client.Issues.Create(ctx, t.owner, t.repo, &github.IssueRequest{
		Title:  github.String(input.Title),
		Body:   github.String(input.Body),
		Labels: &labels,
	})
	if err != nil {
		return ports.IssueRef{}, wrapTrackerErr(err, resp, "create issue")
	}

	return ports.IssueRef{
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func (t *GitHubTracker) UpdateIssue(ctx context.Context, number int, update ports.IssueUpdate) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	state := "open"
	if update.Closed {
		state = "closed"
	}

	labels := update.Labels
	_, resp, err := t.client.Issues.Edit(ctx, t.owner, t.repo, number, &github.IssueRequest{
		State:  github.String(state),
		Labels: &labels,
	})
	if err != nil {
		return wrapTrackerErr(err, resp, "update issue")
	}
	return nil
}

func (t *GitHubTracker) CommentIssue(ctx context.Context, number int, body string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	_, resp, err := t.client.Issues.CreateComment(ctx, t.owner, t.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return wrapTrackerErr(err, resp, "comment issue")
	}
	return nil
}

func wrapTrackerErr(err error, resp *github.Response, action string) error {
	if resp != nil {
		return fmt.Errorf("%w: %s: status %d: %v", ports.ErrTrackerUnavailable, action, resp.StatusCode, err)
	}
	return fmt.Errorf("%w: %s: %v", ports.ErrTrackerUnavailable, action, err)
}
