package directory

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSlug is returned when an owner/repo slug cannot be parsed.
var ErrInvalidSlug = errors.New("invalid repository slug")

// ParseRepoSlug splits an "owner/repo" slug into its parts.
func ParseRepoSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(slug), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q, expected owner/repo", ErrInvalidSlug, slug)
	}
	return parts[0], parts[1], nil
}

// ExtractRepoFromURL extracts owner and repo name from a GitHub URL
func ExtractRepoFromURL(repoURL string) (owner, repo string, err error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %v", err)
	}

	if parsedURL.Host != "github.com" {
		return "", "", fmt.Errorf("not a GitHub URL")
	}

	// Remove leading slash and split path
	path := strings.Trim(parsedURL.Path, "/")
	parts := strings.Split(path, "/")

	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid GitHub URL format")
	}

	return parts[0], parts[1], nil
}
