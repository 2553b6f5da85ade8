package yamlworkflow

import "github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"

// GetFlowModules returns the modules a flow document orchestrates. A flow
// without a `modules` list that extends another flow yields one synthetic
// module named after fallbackName (then the document name, then the
// extends value) carrying `override.params`. Without either field the list
// is empty.
func GetFlowModules(doc mworkflow.Document, fallbackName string) []mworkflow.FlowModule {
	if modules := decodeModules(doc["modules"]); len(modules) > 0 {
		return modules
	}

	extends := asString(doc["extends"])
	if extends == "" {
		return nil
	}

	name := fallbackName
	if name == "" {
		name = doc.Name()
	}
	if name == "" {
		name = extends
	}

	module := mworkflow.FlowModule{Name: name, Extends: extends}
	if override, ok := asMapping(doc["override"]); ok {
		if params, ok := asMapping(override["params"]); ok {
			module.Params = params
		}
	}
	return []mworkflow.FlowModule{module}
}
