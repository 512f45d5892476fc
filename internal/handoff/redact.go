package handoff

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	redactedPlaceholder = "[REDACTED]"

	// sensitivePathPlaceholder stands in for file paths the predicate flags.
	sensitivePathPlaceholder = "[redacted]"
)

// Secret patterns scrubbed from every string that leaves this package.
// Keep this list fixed and conservative: false positives cost a little
// context, false negatives leak credentials into a new session.
var secretPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	// KEY=..., API_TOKEN=..., DB_PASSWORD=... style assignments.
	{regexp.MustCompile(`(?i)([A-Z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD))=(\S+)`), "$1=" + redactedPlaceholder},
	// Authorization bearer blobs.
	{regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer " + redactedPlaceholder},
	// AWS access key ids.
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), redactedPlaceholder},
	// PEM private key blocks, header to footer.
	{regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), redactedPlaceholder},
}

// Redact scrubs known secret shapes from text. It never fails; text with no
// matches passes through unchanged.
func Redact(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, p := range secretPatterns {
		out = p.re.ReplaceAllString(out, p.replacement)
	}
	return out
}

// Normalize trims and redacts text. Every string derived from session
// entries goes through this before being stored on a turn.
func Normalize(text string) string {
	return Redact(strings.TrimSpace(text))
}

var sensitiveBaseNames = map[string]bool{
	".env":       true,
	"auth.json":  true,
	"id_rsa":     true,
	"id_ed25519": true,
}

var sensitiveExtensions = map[string]bool{
	".pem": true,
	".key": true,
	".p12": true,
}

// IsSensitivePath reports whether a file path must be kept out of file lists
// and replaced with a placeholder when referenced.
func IsSensitivePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	base := filepath.Base(path)
	if sensitiveBaseNames[base] {
		return true
	}
	if strings.HasPrefix(base, ".env.") {
		return true
	}
	if sensitiveExtensions[strings.ToLower(filepath.Ext(base))] {
		return true
	}
	return strings.Contains(strings.ToLower(path), "credentials")
}
