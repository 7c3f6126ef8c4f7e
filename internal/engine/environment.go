package engine

import "github.com/codex-k8s/meshgen/internal/env"

// aggregateEnv merges the workspace environment sources, later sources winning:
// engine defaults, the recovered environment of an existing workspace, the variables
// contributed by services and finally the runtime overlay. Service variables never
// override a recovered one, so operator-tuned values survive regeneration.
func aggregateEnv(defaults, recovered, services, overlay *env.Ordered) *env.Ordered {
	out := defaults.Clone()
	out.Merge(recovered)
	for _, key := range services.Keys() {
		if recovered.Has(key) {
			continue
		}
		v, _ := services.Get(key)
		out.Set(key, v)
	}
	out.Merge(overlay)
	return out
}
