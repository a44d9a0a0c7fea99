package validator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/io-sea/wfm-engine/internal/template"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// variablePattern matches plain `{{ identifier }}` substitution, the
// simple form §4.E.7 describes. This pass runs on the raw workflow text
// before YAML parsing, so it works directly against the text rather than
// a parsed value tree.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// pipelinePattern matches a Sprig pipeline expression such as
// `{{ .VAR | default "100GB" }}`, a richer form allowing a workflow author
// to name a fallback for an optional variable. These are rendered through
// template.Engine and consumed before the plain-identifier pass below.
var pipelinePattern = regexp.MustCompile(`\{\{\s*\.[a-zA-Z_][a-zA-Z0-9_]*\s*\|[^{}]*\}\}`)

var exprEngine = template.New()

// commandLinePattern recognizes a step's `command:` line, including the
// list-item form `- command:`; residual variables on such lines are left
// for step-level resolution and are not flagged by CheckNoResidual (§4.E.7).
var commandLinePattern = regexp.MustCompile(`^\s*(-\s*)?command\s*:`)

// Substitute merges the predefined and cmdline variable dictionaries and
// replaces every `{{ identifier }}` occurrence in text. A cmdline key that
// collides with a predefined one is a ValidationError, not a silent
// override (§4.E.7).
func Substitute(text string, predefined, cmdline map[string]string) (string, error) {
	merged := make(map[string]string, len(predefined)+len(cmdline))
	for k, v := range predefined {
		merged[k] = v
	}
	var collisions []string
	for k, v := range cmdline {
		if _, isPredefined := predefined[k]; isPredefined {
			collisions = append(collisions, k)
			continue
		}
		merged[k] = v
	}
	if len(collisions) > 0 {
		sort.Strings(collisions)
		return "", wfmerr.Validation("variables", "Predefined variables should not be redefined on the command line: %s", strings.Join(collisions, ", "))
	}

	text, err := renderPipelines(text, merged)
	if err != nil {
		return "", err
	}

	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if v, ok := merged[name]; ok {
			return v
		}
		return match
	}), nil
}

// renderPipelines rewrites every Sprig pipeline expression in text using
// vars as the expression context, leaving plain `{{ identifier }}`
// occurrences untouched for the caller's subsequent pass.
func renderPipelines(text string, vars map[string]string) (string, error) {
	if !pipelinePattern.MatchString(text) {
		return text, nil
	}
	var renderErr error
	result := pipelinePattern.ReplaceAllStringFunc(text, func(match string) string {
		rendered, err := exprEngine.RenderExpression(match, vars)
		if err != nil {
			renderErr = err
			return match
		}
		return rendered
	})
	if renderErr != nil {
		return "", wfmerr.Validation("variables", "%v", renderErr)
	}
	return result, nil
}

// CheckNoResidual scans text line by line and fails if any non-command
// line still carries a `{{ identifier }}` pattern after Substitute has run
// (§4.E.7).
func CheckNoResidual(text string) error {
	var residual []string
	for _, line := range strings.Split(text, "\n") {
		if commandLinePattern.MatchString(line) {
			continue
		}
		for _, match := range variablePattern.FindAllStringSubmatch(line, -1) {
			residual = append(residual, match[1])
		}
	}
	if len(residual) > 0 {
		return wfmerr.Validation("variables", "undefined variable(s) remain: %s", strings.Join(dedupe(residual), ", "))
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// PredefinedVariables builds the predefined dictionary §4.E.7 substitutes
// ahead of cmdline variables: currently just `SESSION`, the session name
// (§4.F/§8 worked examples reference `{{ SESSION }}`).
func PredefinedVariables(sessionName string) map[string]string {
	return map[string]string{"SESSION": sessionName}
}
