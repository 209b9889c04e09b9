package workflow

import (
	"fmt"
	"strings"
	"time"
)

// Event is a trigger condition under which a workflow's jobs are selected to run.
type Event string

const (
	EventPush             Event = "push"
	EventPullRequest      Event = "pull_request"
	EventWorkflowDispatch Event = "workflow_dispatch"
)

var knownEvents = map[Event]struct{}{
	EventPush:             {},
	EventPullRequest:      {},
	EventWorkflowDispatch: {},
}

// ParseEvent validates an event tag against the closed set of supported events.
func ParseEvent(s string) (Event, error) {
	event := Event(s)
	if _, ok := knownEvents[event]; !ok {
		return "", fmt.Errorf("unknown event %q", s)
	}

	return event, nil
}

// Workflow is the immutable parsed form of a workflow definition.
// Job order matches declaration order in the source document.
type Workflow struct {
	Name string
	On   []Event
	Jobs []Job
}

// Job is an independently scheduled unit of work composed of ordered steps.
type Job struct {
	Name    string
	RunsOn  string
	Timeout time.Duration // 0 means no job-level override
	Steps   []Step
}

// Step is either an inline command (Run) or a reference to an external
// action (Uses). Exactly one of the two is set; Parse enforces this.
type Step struct {
	Name  string
	Uses  *ActionRef
	With  map[string]string
	Run   string
	Shell string
	Env   map[string]string
}

// DisplayName returns the step name, falling back to the command or action
// reference for unnamed steps.
func (s *Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}

	if s.Uses != nil {
		return s.Uses.String()
	}

	return s.Run
}

// ActionRef identifies an external action as "name@version".
type ActionRef struct {
	Name    string
	Version string
}

func (r ActionRef) String() string {
	return fmt.Sprintf("%s@%s", r.Name, r.Version)
}

// ParseActionRef splits a "name@version" reference. The version pin is
// required; an unpinned action is a definition error.
func ParseActionRef(s string) (ActionRef, error) {
	index := strings.LastIndex(s, "@")
	if index <= 0 || index == len(s)-1 {
		return ActionRef{}, fmt.Errorf("action reference %q must have the form name@version", s)
	}

	return ActionRef{
		Name:    s[:index],
		Version: s[index+1:],
	}, nil
}

// Triggered returns the jobs selected for an event, in declaration order.
// An event the workflow does not list selects no jobs; that is not an error.
func (w *Workflow) Triggered(event Event) []Job {
	for _, on := range w.On {
		if on == event {
			return w.Jobs
		}
	}

	return nil
}
