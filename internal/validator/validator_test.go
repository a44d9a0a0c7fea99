package validator

import (
	"testing"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/stretchr/testify/require"
)

func TestSubstitute_PredefinedAndCmdline(t *testing.T) {
	text := "name: {{ SESSION }}-{{ user }}\n"
	out, err := Substitute(text, PredefinedVariables("mysession"), map[string]string{"user": "alice"})
	require.NoError(t, err)
	require.Equal(t, "name: mysession-alice\n", out)
}

func TestSubstitute_CmdlineCollidesWithPredefined(t *testing.T) {
	_, err := Substitute("{{ SESSION }}", PredefinedVariables("s"), map[string]string{"SESSION": "other"})
	require.Error(t, err)
}

func TestSubstitute_PipelineDefaultUsesFallbackWhenMissing(t *testing.T) {
	text := "size: {{ .STORAGESIZE | default \"100GB\" }}\n"
	out, err := Substitute(text, PredefinedVariables("s"), nil)
	require.NoError(t, err)
	require.Equal(t, "size: 100GB\n", out)
}

func TestSubstitute_PipelineDefaultUsesProvidedValue(t *testing.T) {
	text := "size: {{ .STORAGESIZE | default \"100GB\" }}\n"
	out, err := Substitute(text, PredefinedVariables("s"), map[string]string{"STORAGESIZE": "500GB"})
	require.NoError(t, err)
	require.Equal(t, "size: 500GB\n", out)
}

func TestCheckNoResidual_IgnoresCommandLines(t *testing.T) {
	text := "steps:\n  - command: \"echo {{ unresolved }}\"\n"
	require.NoError(t, CheckNoResidual(text))
}

func TestCheckNoResidual_FlagsOtherLines(t *testing.T) {
	text := "workflow:\n  name: {{ missing }}\n"
	require.Error(t, CheckNoResidual(text))
}

func TestParse_TopLevelKeysExact(t *testing.T) {
	text := `
workflow:
  name: demo
services: []
steps: []
extra: true
`
	_, err := Parse(text, nil)
	require.Error(t, err)
}

func TestParse_ValidMinimal(t *testing.T) {
	text := `
workflow:
  name: demo
services: []
steps:
  - name: step1
    command: "echo hi"
    services: []
`
	doc, err := Parse(text, nil)
	require.NoError(t, err)
	require.Equal(t, "demo", doc.Workflow.Name)
	require.Len(t, doc.Steps, 1)
}

func TestParse_StepReferencesUndefinedService(t *testing.T) {
	text := `
workflow:
  name: demo
services: []
steps:
  - name: step1
    command: "echo hi"
    services:
      - name: nope
`
	_, err := Parse(text, nil)
	require.Error(t, err)
}

func TestParse_DuplicateStepNames(t *testing.T) {
	text := `
workflow:
  name: demo
services: []
steps:
  - name: step1
    command: "a"
    services: []
  - name: step1
    command: "b"
    services: []
`
	_, err := Parse(text, nil)
	require.Error(t, err)
}

func TestParse_WithRegistryValidatesServiceAttributes(t *testing.T) {
	registry := ephemeral.NewRegistry(nil)
	text := `
workflow:
  name: demo
services:
  - name: bb1
    type: SBB
    attributes:
      flavor: small
      targets: "1:2"
steps: []
`
	doc, err := Parse(text, registry)
	require.NoError(t, err)
	require.Len(t, doc.Services, 1)
}

func TestParse_WithRegistryRejectsUnknownAttribute(t *testing.T) {
	registry := ephemeral.NewRegistry(nil)
	text := `
workflow:
  name: demo
services:
  - name: bb1
    type: SBB
    attributes:
      flavor: small
      targets: "1:2"
      bogus: x
steps: []
`
	_, err := Parse(text, registry)
	require.Error(t, err)
}
