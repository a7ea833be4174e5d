package roster

import (
	"fmt"
	"regexp"
	"strings"

	"rostr/internal/domain"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ShortCode derives a roster code from a name: the first baseLen characters
// of the first name, capitalized, plus the last-name initial. Collisions get
// a numeric suffix, compared case-insensitively against every code in use.
func ShortCode(name string, baseLen int, people map[string]domain.Person) string {
	taken := map[string]bool{}
	for _, p := range people {
		if p.ShortCode != "" {
			taken[strings.ToUpper(p.ShortCode)] = true
		}
	}
	base := codeBase(name, baseLen, "CONS")
	code := base
	for i := 1; taken[strings.ToUpper(code)]; i++ {
		code = fmt.Sprintf("%s%d", base, i)
	}
	return code
}

// ProjectShortCode is like ShortCode but keeps collision suffixes within an
// 8-character budget by truncating the base.
func ProjectShortCode(name string, baseLen int, projects map[string]domain.Project) string {
	taken := map[string]bool{}
	for _, p := range projects {
		if p.ShortCode != "" {
			taken[strings.ToUpper(p.ShortCode)] = true
		}
	}
	base := codeBase(name, baseLen, "PROJ")
	code := base
	for i := 1; taken[strings.ToUpper(code)]; i++ {
		suffix := fmt.Sprintf("%d", i)
		trimmed := base
		if len(trimmed) > 8-len(suffix) {
			trimmed = trimmed[:8-len(suffix)]
		}
		code = trimmed + suffix
	}
	return code
}

// ProjectID slugifies a project name into a stable key: lowercase, runs of
// non-alphanumerics collapsed to hyphens. The slug is generated once at
// creation and never changes, even if the name does.
func ProjectID(name string, projects map[string]domain.Project) string {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "project"
	}
	id := base
	for i := 1; ; i++ {
		if _, ok := projects[id]; !ok {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, i+1)
	}
}

func codeBase(name string, baseLen int, fallback string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return fallback
	}
	first := parts[0]
	if len(first) > baseLen {
		first = first[:baseLen]
	}
	base := capitalize(first)
	if len(parts) > 1 {
		base += strings.ToUpper(parts[len(parts)-1][:1])
	}
	return base
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
