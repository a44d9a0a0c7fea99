// Package validator implements the workflow-description Validator
// (component E): variable substitution, schema validation, cross-reference
// checks and per-kind attribute/set validation (§4.E).
package validator

// WorkflowDescription is the parsed shape of a workflow file after
// variable substitution, restricted to the top-level keys §4.E.1 allows.
type WorkflowDescription struct {
	Workflow WorkflowHeader    `yaml:"workflow"`
	Services []ServiceDecl     `yaml:"services"`
	Steps    []StepDecl        `yaml:"steps"`
}

// WorkflowHeader is the `workflow` top-level mapping (§4.E.2).
type WorkflowHeader struct {
	Name string `yaml:"name"`
}

// ServiceDecl is one entry of the `services` sequence (§4.E.3).
type ServiceDecl struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Attributes map[string]string `yaml:"attributes"`
}

// StepServiceRef is one entry of a step's `services` sequence (§4.E.5).
type StepServiceRef struct {
	Name       string   `yaml:"name"`
	Datamovers []string `yaml:"datamovers,omitempty"`
}

// StepDecl is one entry of the `steps` sequence (§4.E.5).
type StepDecl struct {
	Name     string           `yaml:"name"`
	Command  string           `yaml:"command"`
	Location string           `yaml:"location,omitempty"`
	Services []StepServiceRef `yaml:"services"`
}
