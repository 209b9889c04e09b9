package workflow

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MalformedDefinitionError is a structural violation in a workflow document.
// It is fatal to Parse; no partial workflow is ever returned alongside it.
type MalformedDefinitionError struct {
	Line    int
	Column  int
	Message string
}

func (e *MalformedDefinitionError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed workflow definition: %s", e.Message)
	}

	return fmt.Sprintf("malformed workflow definition: line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(node *yaml.Node, format string, args ...any) *MalformedDefinitionError {
	err := MalformedDefinitionError{
		Message: fmt.Sprintf(format, args...),
	}

	if node != nil {
		err.Line = node.Line
		err.Column = node.Column
	}

	return &err
}

// Parse loads a workflow definition from YAML and validates it in full.
// All downstream consumers operate on the returned value without
// re-validating; any structural problem is reported here with its position.
func Parse(data []byte) (*Workflow, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedDefinitionError{Message: err.Error()}
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &MalformedDefinitionError{Message: "document is empty"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errorAt(root, "workflow must be a mapping")
	}

	var workflow Workflow
	var sawOn, sawJobs bool

	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		switch key.Value {
		case "name":
			workflow.Name = value.Value

		case "on":
			events, err := parseEvents(value)
			if err != nil {
				return nil, err
			}

			workflow.On = events
			sawOn = true

		case "jobs":
			jobs, err := parseJobs(value)
			if err != nil {
				return nil, err
			}

			workflow.Jobs = jobs
			sawJobs = true

		default:
			return nil, errorAt(key, "unknown workflow key %q", key.Value)
		}
	}

	if !sawOn {
		return nil, errorAt(root, "workflow has no trigger list (\"on\")")
	}

	if !sawJobs || len(workflow.Jobs) == 0 {
		return nil, errorAt(root, "workflow has no jobs")
	}

	return &workflow, nil
}

// parseEvents accepts both the scalar form ("on: push") and the sequence
// form ("on: [push, pull_request]").
func parseEvents(node *yaml.Node) ([]Event, error) {
	scalars := []*yaml.Node{node}
	if node.Kind == yaml.SequenceNode {
		scalars = node.Content
	}

	events := make([]Event, 0, len(scalars))
	seen := make(map[Event]struct{}, len(scalars))

	for _, scalar := range scalars {
		if scalar.Kind != yaml.ScalarNode {
			return nil, errorAt(scalar, "event must be a string")
		}

		event, err := ParseEvent(scalar.Value)
		if err != nil {
			return nil, errorAt(scalar, "%s", err)
		}

		if _, duplicate := seen[event]; duplicate {
			return nil, errorAt(scalar, "duplicate event %q", event)
		}

		seen[event] = struct{}{}
		events = append(events, event)
	}

	if len(events) == 0 {
		return nil, errorAt(node, "trigger list is empty")
	}

	return events, nil
}

func parseJobs(node *yaml.Node) ([]Job, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(node, "jobs must be a mapping")
	}

	jobs := make([]Job, 0, len(node.Content)/2)

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		job, err := parseJob(key.Value, value)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

func parseJob(name string, node *yaml.Node) (Job, error) {
	if node.Kind != yaml.MappingNode {
		return Job{}, errorAt(node, "job %q must be a mapping", name)
	}

	job := Job{Name: name}

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "runs-on":
			job.RunsOn = value.Value

		case "timeout":
			timeout, err := time.ParseDuration(value.Value)
			if err != nil {
				return Job{}, errorAt(value, "invalid timeout %q", value.Value)
			}

			job.Timeout = timeout

		case "steps":
			steps, err := parseSteps(name, value)
			if err != nil {
				return Job{}, err
			}

			job.Steps = steps

		default:
			return Job{}, errorAt(key, "unknown key %q in job %q", key.Value, name)
		}
	}

	if job.RunsOn == "" {
		return Job{}, errorAt(node, "job %q has no runs-on", name)
	}

	if len(job.Steps) == 0 {
		return Job{}, errorAt(node, "job %q has no steps", name)
	}

	return job, nil
}

func parseSteps(jobName string, node *yaml.Node) ([]Step, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, errorAt(node, "steps of job %q must be a sequence", jobName)
	}

	steps := make([]Step, 0, len(node.Content))

	for _, child := range node.Content {
		step, err := parseStep(jobName, child)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	return steps, nil
}

func parseStep(jobName string, node *yaml.Node) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return Step{}, errorAt(node, "step in job %q must be a mapping", jobName)
	}

	var step Step
	var sawUses, sawRun bool

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "name":
			step.Name = value.Value

		case "uses":
			ref, err := ParseActionRef(value.Value)
			if err != nil {
				return Step{}, errorAt(value, "%s", err)
			}

			step.Uses = &ref
			sawUses = true

		case "with":
			params, err := parseStringMap(value)
			if err != nil {
				return Step{}, err
			}

			step.With = params

		case "run":
			step.Run = value.Value
			sawRun = true

		case "shell":
			step.Shell = value.Value

		case "env":
			env, err := parseStringMap(value)
			if err != nil {
				return Step{}, err
			}

			step.Env = env

		default:
			return Step{}, errorAt(key, "unknown step key %q in job %q", key.Value, jobName)
		}
	}

	if sawUses && sawRun {
		return Step{}, errorAt(node, "step in job %q has both \"uses\" and \"run\"", jobName)
	}

	if !sawUses && !sawRun {
		return Step{}, errorAt(node, "step in job %q has neither \"uses\" nor \"run\"", jobName)
	}

	if step.With != nil && !sawUses {
		return Step{}, errorAt(node, "step in job %q has \"with\" without \"uses\"", jobName)
	}

	if step.Shell != "" && !sawRun {
		return Step{}, errorAt(node, "step in job %q has \"shell\" without \"run\"", jobName)
	}

	if sawRun && step.Run == "" {
		return Step{}, errorAt(node, "step in job %q has an empty \"run\" command", jobName)
	}

	return step, nil
}

func parseStringMap(node *yaml.Node) (map[string]string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(node, "expected a mapping of string to string")
	}

	result := make(map[string]string, len(node.Content)/2)

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if value.Kind != yaml.ScalarNode {
			return nil, errorAt(value, "value of %q must be a string", key.Value)
		}

		result[key.Value] = value.Value
	}

	return result, nil
}
