// Package version reports the build version and checks GitHub for a newer release.
package version

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/calx-web/internal/httpclient"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "v0.0.0"

const githubAPI = "https://api.github.com"

type release struct {
	TagName string `json:"tag_name"`
}

type Checker struct {
	client  httpclient.HTTPClient
	baseURL string
	repo    string // owner/name
	current string
}

func NewChecker(repo string, client httpclient.HTTPClient) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return &Checker{client: client, baseURL: githubAPI, repo: repo, current: Version}
}

// Latest returns the newest release tag and whether it is ahead of the running build.
func (c *Checker) Latest(ctx context.Context) (string, bool, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)

	var rel release
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if err := httpclient.SendRequest(ctx, c.client, http.MethodGet, url, headers, nil, &rel); err != nil {
		return "", false, err
	}

	current, err := version.NewVersion(c.current)
	if err != nil {
		return rel.TagName, false, fmt.Errorf("invalid build version %q: %w", c.current, err)
	}
	latest, err := version.NewVersion(rel.TagName)
	if err != nil {
		return rel.TagName, false, fmt.Errorf("invalid release tag %q: %w", rel.TagName, err)
	}

	return rel.TagName, current.LessThan(latest), nil
}

// CheckForUpdates logs a warning when a newer release exists. Failures are logged at debug.
func (c *Checker) CheckForUpdates(ctx context.Context, logger *zap.Logger) {
	latest, outdated, err := c.Latest(ctx)
	if err != nil {
		logger.Debug("Update check failed", zap.Error(err))
		return
	}
	if outdated {
		logger.Warn("A newer release is available",
			zap.String("current", c.current),
			zap.String("latest", latest),
		)
	}
}
