package validator

import (
	"sort"
	"strings"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
	"gopkg.in/yaml.v3"
)

// rawDocument is used only to check the top-level key set exactly matches
// §4.E.1 before unmarshaling into WorkflowDescription; yaml.v3 silently
// ignores unknown keys on a typed struct, which would let a workflow file
// with a typo'd or extra top-level key through unnoticed.
type rawDocument map[string]yaml.Node

// Parse validates the substituted workflow text against §4.E and returns
// the typed tree. registry supplies the per-kind attribute/set checks of
// §4.C; it is nil-safe only in tests that do not declare any services.
func Parse(text string, registry *ephemeral.Registry) (*WorkflowDescription, error) {
	var raw rawDocument
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, wfmerr.Validation("workflow", "invalid YAML: %s", err)
	}
	if err := checkExactKeys("workflow", raw, "workflow", "services", "steps"); err != nil {
		return nil, err
	}

	var doc WorkflowDescription
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, wfmerr.Validation("workflow", "invalid YAML: %s", err)
	}

	if doc.Workflow.Name == "" {
		return nil, wfmerr.Validation("workflow.name", "workflow name is required")
	}

	if err := validateServices(&doc, registry); err != nil {
		return nil, err
	}
	if err := validateSteps(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func checkExactKeys(entity string, raw rawDocument, allowed ...string) error {
	allowedSet := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}
	var extra []string
	for k := range raw {
		if !allowedSet[k] {
			extra = append(extra, k)
		}
	}
	var missing []string
	for _, k := range allowed {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(extra) == 0 && len(missing) == 0 {
		return nil
	}
	sort.Strings(extra)
	sort.Strings(missing)
	return wfmerr.Validation(entity, "expected exactly keys %s (extra: %v, missing: %v)", strings.Join(allowed, ", "), extra, missing)
}

func validateServices(doc *WorkflowDescription, registry *ephemeral.Registry) error {
	seen := make(map[string]bool, len(doc.Services))
	byKind := make(map[string][]ephemeral.Attrs)

	for _, svc := range doc.Services {
		if svc.Name == "" || strings.Contains(svc.Name, "/") {
			return wfmerr.Validation("service.name", "service name %q is not a valid file-name fragment", svc.Name)
		}
		if seen[svc.Name] {
			return wfmerr.Validation("service.name", "service %q declared twice", svc.Name)
		}
		seen[svc.Name] = true

		if registry == nil {
			continue
		}
		kind, err := serviceKind(svc.Type)
		if err != nil {
			return err
		}
		impl, err := registry.Get(kind)
		if err != nil {
			return wfmerr.NotSupported("service.type", "service %q: %s", svc.Name, err)
		}
		if err := checkAttributeKeys(svc.Name, svc.Attributes, impl.MandatoryKeys(), impl.OptionalKeys()); err != nil {
			return err
		}
		attrs := ephemeral.Attrs(svc.Attributes)
		if err := impl.ValidateAttributes(attrs); err != nil {
			return wfmerr.Validation("service."+svc.Name, "%s", err)
		}
		byKind[svc.Type] = append(byKind[svc.Type], attrs)
	}

	if registry == nil {
		return nil
	}
	for typ, attrsList := range byKind {
		kind, _ := serviceKind(typ)
		impl, err := registry.Get(kind)
		if err != nil {
			continue
		}
		if err := impl.ValidateSet(attrsList); err != nil {
			return wfmerr.Validation("services", "%s", err)
		}
	}
	return nil
}

func checkAttributeKeys(serviceName string, attrs map[string]string, mandatory, optional []string) error {
	allowed := make(map[string]bool, len(mandatory)+len(optional))
	for _, k := range mandatory {
		allowed[k] = true
	}
	for _, k := range optional {
		allowed[k] = true
	}

	var missing, extra []string
	for _, k := range mandatory {
		if v, ok := attrs[k]; !ok || v == "" {
			missing = append(missing, k)
		}
	}
	for k := range attrs {
		if !allowed[k] {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return wfmerr.Validation("service."+serviceName, "attribute keys mismatch (missing: %v, unexpected: %v)", missing, extra)
}

func validateSteps(doc *WorkflowDescription) error {
	serviceNames := make(map[string]bool, len(doc.Services))
	for _, svc := range doc.Services {
		serviceNames[svc.Name] = true
	}

	seenSteps := make(map[string]bool, len(doc.Steps))
	for _, step := range doc.Steps {
		if step.Name == "" {
			return wfmerr.Validation("step.name", "step name is required")
		}
		if seenSteps[step.Name] {
			return wfmerr.Validation("step.name", "step %q defined twice", step.Name)
		}
		seenSteps[step.Name] = true

		if step.Command == "" {
			return wfmerr.Validation("step."+step.Name, "command is required")
		}
		if len(step.Services) > 1 {
			return wfmerr.Validation("step."+step.Name, "at most one service per step is supported")
		}
		for _, ref := range step.Services {
			if ref.Name == "" {
				return wfmerr.Validation("step."+step.Name, "a referenced service must name `name`")
			}
			if !serviceNames[ref.Name] {
				return wfmerr.Validation("step."+step.Name, "references undefined service %q", ref.Name)
			}
		}
	}
	return nil
}

func serviceKind(typ string) (store.ServiceKind, error) {
	k := strings.ToUpper(strings.TrimSpace(typ))
	switch k {
	case "SBB", "GBF", "DASI", "NONE":
		return store.ServiceKind(k), nil
	default:
		return "", wfmerr.NotSupported("service.type", "unsupported service type %q", typ)
	}
}
