package engine

import "strconv"

// Question is one prompt of the interactive flow. The engine only describes the questions;
// asking them is up to the caller.
type Question struct {
	Type    string   `yaml:"type" json:"type"`
	Name    string   `yaml:"name" json:"name"`
	Message string   `yaml:"message" json:"message"`
	Default string   `yaml:"default,omitempty" json:"default,omitempty"`
	Choices []Choice `yaml:"choices,omitempty" json:"choices,omitempty"`
}

// Choice is one option of a list question.
type Choice struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Questions returns the questions to ask before a pass. The port question is omitted when
// the workspace already has a configuration, whose port is kept.
func (e *Engine) Questions() ([]Question, error) {
	rec, err := e.Probe()
	if err != nil {
		return nil, err
	}

	out := []Question{{
		Type:    "list",
		Name:    "staticTyping",
		Message: "Do you want to use static typing?",
		Default: "false",
		Choices: []Choice{{Name: "yes", Value: "true"}, {Name: "no", Value: "false"}},
	}}
	if rec != nil {
		return out, nil
	}
	out = append(out, Question{
		Type:    "input",
		Name:    "port",
		Message: "What port do you want to use?",
		Default: strconv.Itoa(e.opts.Port),
	})
	return out, nil
}
