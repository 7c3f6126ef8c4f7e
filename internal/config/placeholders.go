package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/meshgen/internal/env"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// AllowFunc decides whether a caller-supplied variable may be substituted into a configuration.
// known holds every variable name the caller supplied.
type AllowFunc func(name string, known []string) bool

// DefaultAllow admits PORT and every MESH_-prefixed variable.
func DefaultAllow(name string, _ []string) bool {
	return name == EnvPort || strings.HasPrefix(name, "MESH_")
}

// AllowNames returns an AllowFunc admitting exactly the listed names.
func AllowNames(names ...string) AllowFunc {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[env.NormalizeKey(n)] = struct{}{}
	}
	return func(name string, _ []string) bool {
		_, ok := set[env.NormalizeKey(name)]
		return ok
	}
}

// placeholderEnv resolves {NAME} references. Variables from the workspace .env file are always
// available; caller-supplied ones only when admitted by allow.
type placeholderEnv struct {
	dotenv   *env.Ordered
	explicit env.Vars
	allow    AllowFunc
	known    []string
	used     map[string]string
}

func newPlaceholderEnv(dotenv *env.Ordered, explicit env.Vars, allow AllowFunc) *placeholderEnv {
	if allow == nil {
		allow = DefaultAllow
	}
	known := explicit.Names()
	sort.Strings(known)
	return &placeholderEnv{
		dotenv:   dotenv,
		explicit: explicit,
		allow:    allow,
		known:    known,
		used:     make(map[string]string),
	}
}

func (p *placeholderEnv) lookup(name string) (string, bool) {
	if v, ok := p.dotenv.Get(name); ok {
		return v, true
	}
	v, ok := p.explicit[name]
	if !ok || !p.allow(name, p.known) {
		return "", false
	}
	p.used[name] = v
	return v, true
}

// resolve replaces every placeholder in s.
func (p *placeholderEnv) resolve(s string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := p.lookup(name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved placeholder %s", Placeholder(missing[0]))
	}
	return out, nil
}

// resolveNode resolves placeholders in every scalar value of the document tree. Mapping keys are left untouched.
func (p *placeholderEnv) resolveNode(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := p.resolveNode(c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if err := p.resolveNode(n.Content[i]); err != nil {
				return fmt.Errorf("%s: %w", n.Content[i-1].Value, err)
			}
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" || !strings.Contains(n.Value, "{") {
			return nil
		}
		v, err := p.resolve(n.Value)
		if err != nil {
			return err
		}
		n.Value = v
	}
	return nil
}
