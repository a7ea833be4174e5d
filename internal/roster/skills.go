package roster

import (
	"strconv"
	"strings"
)

// ParseSkill splits a "name:level" pair. Level is expected in 1-10 but is not
// range-checked here; callers validate new input, replayed history is taken
// as-is.
func ParseSkill(s string) (name string, level int, ok bool) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 {
		return "", 0, false
	}
	level, err := strconv.Atoi(strings.TrimSpace(s[idx+1:]))
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(s[:idx]), level, true
}

// Matches reports whether a person's skills satisfy every required
// "name:level" pair, comparing names case-insensitively. No requirements
// means everyone matches.
func Matches(personSkills, required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := map[string]int{}
	for _, s := range personSkills {
		if name, level, ok := ParseSkill(s); ok {
			have[strings.ToLower(name)] = level
		}
	}
	for _, r := range required {
		name, level, ok := ParseSkill(r)
		if !ok {
			continue
		}
		if have[strings.ToLower(name)] < level {
			return false
		}
	}
	return true
}

// HasSkill reports whether any skill entry names the given skill, ignoring
// level and case.
func HasSkill(skills []string, skill string) bool {
	for _, s := range skills {
		if name, _, ok := ParseSkill(s); ok && strings.EqualFold(name, skill) {
			return true
		}
	}
	return false
}

// FormatSkills renders "Go:5, K8s:3" entries as "Go (5), K8s (3)".
func FormatSkills(skills []string) string {
	parts := make([]string, 0, len(skills))
	for _, s := range skills {
		if name, level, ok := ParseSkill(s); ok {
			parts = append(parts, name+" ("+strconv.Itoa(level)+")")
		} else {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
