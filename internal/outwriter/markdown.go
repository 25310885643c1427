package outwriter

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/huangsam/sonarissues/schema"
)

// ColorsEnabled returns false when NO_COLOR is set or TERM is "dumb".
func ColorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// RenderMarkdown renders markdown text for terminal display.
// When colors are disabled, it returns the content unmodified.
func RenderMarkdown(content string, useColors bool) (string, error) {
	if content == "" {
		return "", nil
	}
	if !useColors || !ColorsEnabled() {
		return content, nil
	}
	rendered, err := glamour.RenderWithEnvironmentConfig(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return rendered, nil
}

// TroubleshootingMarkdown explains what to check when a fetch returned no issues.
func TroubleshootingMarkdown(baseURL string, sc schema.Context) string {
	q := url.Values{}
	q.Set("componentKeys", sc.ProjectKey)
	q.Set("organization", sc.Organization)
	q.Set("ps", "10")
	testURL := strings.TrimRight(baseURL, "/") + "/api/issues/search?" + q.Encode()

	var b strings.Builder
	b.WriteString("## No issues found\n\n")
	b.WriteString("Things to check:\n\n")
	b.WriteString("1. The token is a **User Token**, not a Project Token.\n")
	fmt.Fprintf(&b, "2. Regenerate it at %s/account/security/ if in doubt.\n", strings.TrimRight(baseURL, "/"))
	fmt.Fprintf(&b, "3. The organization key is `%s` (lower case).\n", sc.Organization)
	fmt.Fprintf(&b, "4. The project key `%s` is correct.\n", sc.ProjectKey)
	fmt.Fprintf(&b, "5. The selected scope (%s) exists.\n", sc.Scope)
	fmt.Fprintf(&b, "6. Open this link in a browser while logged in:\n\n    %s\n", testURL)
	return b.String()
}

// WriteTroubleshooting prints the no-issues guide.
func WriteTroubleshooting(w io.Writer, baseURL string, sc schema.Context, useColors bool) error {
	rendered, err := RenderMarkdown(TroubleshootingMarkdown(baseURL, sc), useColors)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}
