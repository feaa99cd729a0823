// Package responses renders the bot messages actions produce into text,
// using response templates keyed by id (utter_*). The built-in set is baked
// into the binary; a YAML file with the same layout replaces it.
package responses

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"bankbot/internal/logging"
	"bankbot/internal/types"
)

//go:embed responses.yaml
var builtin []byte

// Variant is one way of phrasing a response.
type Variant struct {
	Text    string         `yaml:"text"`
	Buttons []types.Button `yaml:"buttons,omitempty"`
}

// Templates holds the response variants by template id.
type Templates struct {
	responses map[string][]Variant
}

type templateFile struct {
	Responses map[string][]Variant `yaml:"responses"`
}

// Parse reads templates from YAML.
func Parse(data []byte) (*Templates, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse responses: %w", err)
	}
	for id, variants := range f.Responses {
		if len(variants) == 0 {
			return nil, fmt.Errorf("response %s has no variants", id)
		}
	}
	if f.Responses == nil {
		f.Responses = make(map[string][]Variant)
	}
	return &Templates{responses: f.Responses}, nil
}

// Load reads templates from path, or returns the built-in set when path is
// empty.
func Load(path string) (*Templates, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.CLIDebug("Loaded %d responses from %s", len(t.responses), path)
	return t, nil
}

// Builtin returns the templates compiled into the binary.
func Builtin() (*Templates, error) {
	return Parse(builtin)
}

// IDs returns the template ids, sorted.
func (t *Templates) IDs() []string {
	ids := make([]string, 0, len(t.responses))
	for id := range t.responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether a template exists.
func (t *Templates) Has(id string) bool {
	_, ok := t.responses[id]
	return ok
}

// Rendered is a message ready to show.
type Rendered struct {
	Text    string
	Buttons []types.Button
	Custom  map[string]any
}

var placeholder = regexp.MustCompile(`\{([^{}\s]+)\}`)

// Render turns msg into text. Placeholders take the message's keyword
// values first and the conversation's slots second; unresolved ones are
// left as written. A template that does not exist renders as its id.
func (t *Templates) Render(msg types.BotMessage, slots map[string]any) Rendered {
	if msg.Custom != nil {
		return Rendered{Custom: msg.Custom}
	}

	text, buttons := msg.Text, msg.Buttons
	if msg.Response != "" {
		variants, ok := t.responses[msg.Response]
		if !ok {
			logging.CLIDebug("No template %s", msg.Response)
			return Rendered{Text: msg.Response}
		}
		v := variants[0]
		text = v.Text
		if len(buttons) == 0 {
			buttons = v.Buttons
		}
	}

	return Rendered{Text: fill(text, msg.Kwargs, slots), Buttons: buttons}
}

func fill(text string, kwargs, slots map[string]any) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := kwargs[key]; ok {
			return format(v)
		}
		if v, ok := slots[key]; ok {
			return format(v)
		}
		return m
	})
}

func format(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
