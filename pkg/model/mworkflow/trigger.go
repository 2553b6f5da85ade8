//nolint:revive // exported
package mworkflow

// Trigger is a normalized trigger definition.
type Trigger struct {
	Name     string        `json:"name,omitempty"`
	On       string        `json:"on,omitempty"`
	Enabled  *bool         `json:"enabled,omitempty"`
	Schedule string        `json:"schedule,omitempty"`
	Path     string        `json:"path,omitempty"`
	Input    *TriggerInput `json:"input,omitempty"`
	Event    *TriggerEvent `json:"event,omitempty"`
}

type TriggerInput struct {
	Type     string `json:"type,omitempty"`
	Field    string `json:"field,omitempty"`
	Function string `json:"function,omitempty"`
}

type TriggerEvent struct {
	Topic           string   `json:"topic,omitempty"`
	Filters         []string `json:"filters,omitempty"`
	FilterFunctions []string `json:"filterFunctions,omitempty"`
}
