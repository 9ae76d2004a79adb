// Package caption renders caption templates and applies per-platform
// post-processing: empty-variable stripping, hashtag limits, and length
// truncation.
package caption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/lunahq/creator-export/internal/platform"
)

// Variables maps template variable names to scalar values (strings or numbers).
type Variables map[string]any

// Options controls the post-processing applied after variable substitution.
type Options struct {
	Platform             platform.Spec
	Truncate             bool
	EnforceHashtagLimit  bool
	RemoveEmptyVariables bool
}

// Result is the rendered caption plus any warnings recorded while applying
// platform limits.
type Result struct {
	Text     string
	Warnings []string
}

// placeholderRe matches {{name}} placeholders, tolerating inner whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// hashtagRe matches #word tokens (letters, digits, underscore).
var hashtagRe = regexp.MustCompile(`#[\pL\pN_]+`)

// Ellipsis is appended to truncated captions when it fits within the limit.
const Ellipsis = "…"

// Format renders the template against the variable map, then applies the
// platform post-processing selected in opts, in this order: substitution,
// empty-variable stripping, hashtag enforcement, truncation.
//
// Placeholders with no matching variable are left as literal text unless
// RemoveEmptyVariables is set. A typo in a template must never block an
// export.
func Format(template string, vars Variables, opts Options) Result {
	removed := false
	text := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok || v == nil || v == "" {
			if opts.RemoveEmptyVariables {
				removed = true
				return ""
			}
			return m
		}
		return stringify(v)
	})
	if removed {
		text = tidyAfterRemoval(template, text)
	}

	var warnings []string
	if opts.EnforceHashtagLimit && opts.Platform.MaxHashtags > 0 {
		text, warnings = enforceHashtagLimit(text, opts.Platform.MaxHashtags, warnings)
	}
	if opts.Truncate && opts.Platform.CaptionLimit > 0 {
		text, warnings = truncate(text, opts.Platform.CaptionLimit, warnings)
	}
	return Result{Text: text, Warnings: warnings}
}

// KnownVariables lists the variable names the product UI offers for caption
// templates. The formatter itself accepts any name; this list is a projection
// for the companion read-only endpoint.
func KnownVariables() []string {
	return []string{
		"model_name",
		"username",
		"platform",
		"price",
		"currency",
		"link",
		"date",
	}
}

// stringify renders a variable value with locale-free decimal notation.
// No currency symbol is injected; callers embed "$" literally in templates.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// tidyAfterRemoval cleans up whitespace scars left by removed placeholders.
// Placeholders never span lines, so the rendered text has the same line
// structure as the template; a line that became blank is dropped, a line
// that was already blank in the template stays (paragraph break).
func tidyAfterRemoval(template, rendered string) string {
	tmplLines := strings.Split(template, "\n")
	lines := strings.Split(rendered, "\n")

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		cleaned := strings.TrimSpace(collapseSpaces(line))
		if cleaned == "" && i < len(tmplLines) && strings.TrimSpace(tmplLines[i]) != "" {
			continue
		}
		out = append(out, cleaned)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// enforceHashtagLimit strips #word tokens beyond max from the end of the
// text, keeping earlier ones, and records how many were dropped.
func enforceHashtagLimit(text string, max int, warnings []string) (string, []string) {
	locs := hashtagRe.FindAllStringIndex(text, -1)
	if len(locs) <= max {
		return text, warnings
	}
	dropped := len(locs) - max

	// Remove back to front so earlier indices stay valid. Whitespace
	// immediately before a dropped tag goes with it.
	for i := len(locs) - 1; i >= max; i-- {
		start, end := locs[i][0], locs[i][1]
		for start > 0 && isSpaceByte(text[start-1]) {
			start--
		}
		text = text[:start] + text[end:]
	}
	warnings = append(warnings, fmt.Sprintf("dropped %d hashtag(s) over the limit of %d", dropped, max))
	return strings.TrimRight(text, " \t\n"), warnings
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// truncate cuts the text at the last whitespace boundary before limit runes,
// never mid-word, and appends an ellipsis only if it still fits.
func truncate(text string, limit int, warnings []string) (string, []string) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, warnings
	}

	cut := limit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}

	var out string
	if cut == 0 {
		// One unbroken word longer than the limit: hard cut.
		out = string(runes[:limit])
	} else {
		out = strings.TrimRight(string(runes[:cut]), " \t\n")
	}
	if len([]rune(out))+len([]rune(Ellipsis)) <= limit {
		out += Ellipsis
	}
	warnings = append(warnings, fmt.Sprintf("caption truncated to %d characters", limit))
	return out, warnings
}
