package domain

// EffectResult is the only channel through which external-world outcomes
// enter the pure transition pipeline.
type EffectResult struct {
	Success bool
	Code    ErrorCode // set when Success is false
	Data    *Delta    // fetched data to merge before the handler runs
}

// OK returns a successful EffectResult carrying the given fetched data.
// data may be nil when the call produced nothing to merge.
func OK(data *Delta) EffectResult {
	return EffectResult{Success: true, Data: data}
}

// Fail returns a failed EffectResult with the given error code.
func Fail(code ErrorCode) EffectResult {
	return EffectResult{Success: false, Code: code}
}

// HandlerResult is the outcome of a pure step handler. NextStep, when set,
// overrides condition scanning for exactly one transition.
type HandlerResult struct {
	NextStep StepID
	Data     Delta
}

// Init describes a freshly initiated flow.
type Init struct {
	FlowType         FlowType
	Steps            Steps
	CurrentStep      StepID
	CurrentStepIndex int
	State            FlowState
}

// AdvanceResult describes the outcome of one step transition. On failure the
// state is the caller's input state, byte for byte; NextStepIndex is -1 when
// the next step was handler-directed to a step outside the table.
type AdvanceResult struct {
	Success       bool
	Code          ErrorCode
	NextStep      StepID
	NextStepIndex int
	State         FlowState
}
