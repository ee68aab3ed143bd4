package schedule

// Options is the option map of a scope frame or a job.
type Options map[string]any

// mergeOptions deep merges the layers into a new map, later layers winning.
// Nested maps are merged key by key; any other value replaces the earlier one.
func mergeOptions(layers ...Options) Options {
	out := make(Options)
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		merged := make(map[string]any, len(sm))
		if dm, ok := dst[k].(map[string]any); ok {
			mergeInto(merged, dm)
		}
		mergeInto(merged, sm)
		dst[k] = merged
	}
}
