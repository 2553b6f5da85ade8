package yamlworkflow

import "github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"

// NormalizeTriggers reads `triggers`, falling back to the singular
// `trigger`. Either field may hold one mapping or a sequence of mappings;
// entries that are not mappings are dropped.
func NormalizeTriggers(doc mworkflow.Document) []mworkflow.Trigger {
	if triggers := normalizeTriggerField(doc["triggers"]); len(triggers) > 0 {
		return triggers
	}
	return normalizeTriggerField(doc["trigger"])
}

func normalizeTriggerField(v any) []mworkflow.Trigger {
	var items []any
	if m, ok := asMapping(v); ok {
		items = []any{m}
	} else {
		items = asSequence(v)
	}

	var out []mworkflow.Trigger
	for _, item := range items {
		m, ok := asMapping(item)
		if !ok {
			continue
		}
		out = append(out, normalizeTrigger(m))
	}
	return out
}

func normalizeTrigger(m map[string]any) mworkflow.Trigger {
	t := mworkflow.Trigger{
		Name:     asString(m["name"]),
		On:       asString(m["on"]),
		Enabled:  asBoolPtr(m["enabled"]),
		Schedule: asString(m["schedule"]),
		Path:     asString(m["path"]),
	}
	if in, ok := asMapping(m["input"]); ok {
		t.Input = &mworkflow.TriggerInput{
			Type:     asString(in["type"]),
			Field:    asString(in["field"]),
			Function: asString(in["function"]),
		}
	}
	if ev, ok := asMapping(m["event"]); ok {
		t.Event = &mworkflow.TriggerEvent{
			Topic:           asString(ev["topic"]),
			Filters:         asStringList(ev["filters"]),
			FilterFunctions: asStringList(ev["filterFunctions"]),
		}
	}
	return t
}

// OverrideParams returns `override.params` when it is a non-empty mapping.
func OverrideParams(doc mworkflow.Document) map[string]any {
	override, ok := asMapping(doc["override"])
	if !ok {
		return nil
	}
	params, ok := asMapping(override["params"])
	if !ok || len(params) == 0 {
		return nil
	}
	return params
}
