package review

// State is a pipeline position.
type State string

const (
	StateStart       State = "start"
	StateValidating  State = "validating"
	StateSyntaxError State = "syntax-error"
	StateScanning    State = "scanning"
	StateScoring     State = "scoring"
	StateClassifying State = "classifying"
	StateExecuting   State = "executing"
	StateAdvising    State = "advising"
	StateDone        State = "done"
)

// stateOf maps a stage to the state the pipeline is in while it runs.
func stateOf(id StageID) State {
	switch id {
	case StageSyntax:
		return StateValidating
	case StagePatterns:
		return StateScanning
	case StageMaintainability, StageComplexity:
		return StateScoring
	case StageClassifier:
		return StateClassifying
	case StageExecution:
		return StateExecuting
	case StageAdvisory:
		return StateAdvising
	default:
		return StateStart
	}
}
