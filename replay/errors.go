package replay

import "fmt"

type ReplayError struct {
	StepIndex int    `json:"step_index"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
