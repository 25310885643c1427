// Package update replaces the running binary with the latest published release.
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/go-github/v55/github"
	"github.com/huangsam/sonarissues/internal/contract"
	"golang.org/x/mod/semver"
	"golang.org/x/oauth2"
)

// AssetPrefix prefixes every release binary name.
const AssetPrefix = "sonarcloud_issues"

// BackupSuffix is appended to the previous binary while it is being replaced.
const BackupSuffix = ".old"

// ErrUpToDate is returned by Run when the running version is the latest.
var ErrUpToDate = errors.New("already running the latest version")

// ErrCanceled is returned by Run when the operator declines the update.
var ErrCanceled = errors.New("update canceled")

// Release is the newest published version and the asset for this platform.
type Release struct {
	Tag       string
	AssetName string
	AssetURL  string
	Size      int64
}

// Updater checks for and installs new releases from a GitHub repository.
type Updater struct {
	gh         *github.Client
	httpClient *http.Client
	owner      string
	repo       string
	current    string
	exePath    string
	goos       string
	out        io.Writer
}

// Option configures an Updater.
type Option func(*Updater)

// WithAPIBaseURL points the release lookup at another GitHub API endpoint.
func WithAPIBaseURL(raw string) Option {
	return func(u *Updater) {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if parsed, err := url.Parse(raw); err == nil {
			u.gh.BaseURL = parsed
		}
	}
}

// WithHTTPClient sets the client used to download release assets.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) { u.httpClient = c }
}

// WithExecutable sets the binary that gets replaced.
func WithExecutable(path string) Option {
	return func(u *Updater) { u.exePath = path }
}

// WithOS overrides the platform used to pick the release asset.
func WithOS(goos string) Option {
	return func(u *Updater) { u.goos = goos }
}

// WithOutput sets where progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(u *Updater) { u.out = w }
}

// NewUpdater builds an updater for cfg.UpdateRepo. A GitHub token, when set,
// raises the API rate limit.
func NewUpdater(ctx context.Context, cfg *contract.Config, opts ...Option) (*Updater, error) {
	owner, repo, ok := strings.Cut(cfg.UpdateRepo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("update-repo must look like owner/name (received %q)", cfg.UpdateRepo)
	}

	var apiClient *http.Client
	if cfg.GitHubToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
		apiClient = oauth2.NewClient(ctx, ts)
	}

	u := &Updater{
		gh:         github.NewClient(apiClient),
		httpClient: &http.Client{Timeout: contract.DownloadTimeout},
		owner:      owner,
		repo:       repo,
		current:    cfg.Version,
		goos:       runtime.GOOS,
		out:        os.Stderr,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.exePath == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate the running executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		u.exePath = exe
	}
	return u, nil
}

// AssetName returns the release binary name for a tag and platform.
func AssetName(tag, goos string) string {
	name := fmt.Sprintf("%s-%s-%s", AssetPrefix, tag, goos)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

// canonical adds the "v" prefix semver expects.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// IsNewer reports whether latest is a newer version than current. A current
// version that is not semver (such as a dev build) is always considered older.
func IsNewer(current, latest string) (bool, error) {
	l := canonical(latest)
	if !semver.IsValid(l) {
		return false, fmt.Errorf("release tag %q is not a semantic version", latest)
	}
	c := canonical(current)
	if !semver.IsValid(c) {
		return true, nil
	}
	return semver.Compare(l, c) > 0, nil
}

// Latest looks up the newest release and the asset for this platform.
func (u *Updater) Latest(ctx context.Context) (*Release, error) {
	rel, _, err := u.gh.Repositories.GetLatestRelease(ctx, u.owner, u.repo)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest release of %s/%s: %w", u.owner, u.repo, err)
	}
	tag := rel.GetTagName()
	if tag == "" {
		return nil, fmt.Errorf("latest release of %s/%s has no tag", u.owner, u.repo)
	}

	want := AssetName(tag, u.goos)
	for _, asset := range rel.Assets {
		if asset.GetName() == want {
			return &Release{
				Tag:       tag,
				AssetName: want,
				AssetURL:  asset.GetBrowserDownloadURL(),
				Size:      int64(asset.GetSize()),
			}, nil
		}
	}
	return &Release{Tag: tag, AssetName: want}, nil
}

// progressWriter reports download progress on one line.
type progressWriter struct {
	out   io.Writer
	total int64
	done  int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if p.total > 0 {
		pct := float64(p.done) / float64(p.total) * 100
		_, _ = fmt.Fprintf(p.out, "\r📥 Downloading %.1f%% (%s / %s)", pct, humanize.Bytes(uint64(p.done)), humanize.Bytes(uint64(p.total)))
	} else {
		_, _ = fmt.Fprintf(p.out, "\r📥 Downloading %s", humanize.Bytes(uint64(p.done)))
	}
	return len(b), nil
}

// Download fetches the release asset into a temporary file and returns its path.
// Empty downloads are rejected.
func (u *Updater) Download(ctx context.Context, rel *Release) (string, error) {
	if rel.AssetURL == "" {
		return "", fmt.Errorf("release %s has no asset named %s", rel.Tag, rel.AssetName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.AssetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, contract.MaxStatusBody))
		hint := ""
		if resp.StatusCode == http.StatusNotFound {
			hint = ". The asset may not be uploaded for this version"
		}
		return "", fmt.Errorf("download returned HTTP %d%s: %s", resp.StatusCode, hint, strings.TrimSpace(string(body)))
	}

	tmp, err := os.CreateTemp("", fmt.Sprintf("%s_%s_*", AssetPrefix, rel.Tag))
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	total := resp.ContentLength
	if total <= 0 {
		total = rel.Size
	}
	progress := &progressWriter{out: u.out, total: total}
	n, copyErr := io.Copy(tmp, io.TeeReader(resp.Body, progress))
	_, _ = fmt.Fprintln(u.out)
	closeErr := tmp.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("download interrupted: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finish temporary file: %w", closeErr)
	case n == 0:
		_ = os.Remove(tmpPath)
		return "", errors.New("downloaded file is empty")
	}
	return tmpPath, nil
}

// Apply swaps the downloaded binary in. The current binary is kept as
// <exe>.old and restored when the swap fails.
func (u *Updater) Apply(newPath string) error {
	backup := u.exePath + BackupSuffix

	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		contract.LogWarn("Could not remove old backup", err)
	}
	if err := os.Rename(u.exePath, backup); err != nil {
		_ = os.Remove(newPath)
		return fmt.Errorf("failed to back up current executable: %w. Check write permissions", err)
	}
	if err := moveFile(newPath, u.exePath); err != nil {
		if restoreErr := os.Rename(backup, u.exePath); restoreErr != nil {
			return errors.Join(fmt.Errorf("failed to install new executable: %w", err),
				fmt.Errorf("failed to restore backup %s: %w", backup, restoreErr))
		}
		return fmt.Errorf("failed to install new executable, previous version restored: %w", err)
	}
	if err := os.Chmod(u.exePath, 0o755); err != nil {
		contract.LogWarn("Could not mark new executable as runnable", err)
	}
	return nil
}

// moveFile renames src to dst, copying when they live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// Run checks for a newer release, asks confirm and installs it.
// confirm may be nil to install without asking.
func (u *Updater) Run(ctx context.Context, confirm func(prompt string) bool) (*Release, error) {
	_, _ = fmt.Fprintln(u.out, "🔍 Checking for updates...")
	rel, err := u.Latest(ctx)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(u.out, "Current version: %s\nLatest version:  %s\n", u.current, rel.Tag)

	newer, err := IsNewer(u.current, rel.Tag)
	if err != nil {
		return rel, err
	}
	if !newer {
		return rel, ErrUpToDate
	}
	if confirm != nil && !confirm(fmt.Sprintf("Update to %s? (y/N): ", rel.Tag)) {
		return rel, ErrCanceled
	}

	_, _ = fmt.Fprintf(u.out, "📦 Downloading %s\n", rel.AssetURL)
	tmpPath, err := u.Download(ctx, rel)
	if err != nil {
		return rel, err
	}
	if err := u.Apply(tmpPath); err != nil {
		return rel, err
	}
	_, _ = fmt.Fprintf(u.out, "✅ Updated to %s. Backup kept at %s. Restart to use the new version.\n", rel.Tag, u.exePath+BackupSuffix)
	return rel, nil
}
