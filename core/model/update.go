package model

// UpdateStep is the outcome of one step of a system update.
type UpdateStep struct {
	Step   string `json:"step"`
	OK     bool   `json:"ok"`
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// UpdateResult is the backend answer to a system update.
type UpdateResult struct {
	OK      bool         `json:"ok"`
	Results []UpdateStep `json:"results"`
}

// Failed returns the steps that did not succeed.
func (r UpdateResult) Failed() []UpdateStep {
	var out []UpdateStep
	for _, s := range r.Results {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}
