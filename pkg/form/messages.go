package form

// Msg is a state transition message. Every mutation the engine performs is
// expressed as one of the message types below and applied by Reduce, so the
// full state machine stays inspectable and replayable.
type Msg interface {
	isMsg()
}

// SetValuesMsg replaces the whole value tree.
type SetValuesMsg struct {
	Values map[string]any
}

// SetFieldValueMsg writes one value leaf.
type SetFieldValueMsg struct {
	Path  string
	Value any
}

// SetErrorsMsg replaces the whole error tree.
type SetErrorsMsg struct {
	Errors map[string]any
}

// SetFieldErrorMsg writes one error leaf. An empty message clears the leaf.
type SetFieldErrorMsg struct {
	Path    string
	Message string
}

// SetTouchedMsg replaces the whole touched tree.
type SetTouchedMsg struct {
	Touched map[string]any
}

// SetFieldTouchedMsg writes one touched leaf.
type SetFieldTouchedMsg struct {
	Path    string
	Touched bool
}

// SetStatusMsg stores an opaque status value.
type SetStatusMsg struct {
	Status any
}

// SetSubmittingMsg toggles the submitting flag.
type SetSubmittingMsg struct {
	Submitting bool
}

// SetValidatingMsg toggles the validating flag.
type SetValidatingMsg struct {
	Validating bool
}

// SubmitAttemptMsg begins a submission: raises the submitting flag, bumps the
// submit counter, and marks every value leaf touched.
type SubmitAttemptMsg struct{}

// SubmitSuccessMsg completes a submission.
type SubmitSuccessMsg struct{}

// SubmitFailureMsg aborts a submission.
type SubmitFailureMsg struct{}

// ResetMsg replaces the full record.
type ResetMsg struct {
	State State
}

func (SetValuesMsg) isMsg()       {}
func (SetFieldValueMsg) isMsg()   {}
func (SetErrorsMsg) isMsg()       {}
func (SetFieldErrorMsg) isMsg()   {}
func (SetTouchedMsg) isMsg()      {}
func (SetFieldTouchedMsg) isMsg() {}
func (SetStatusMsg) isMsg()       {}
func (SetSubmittingMsg) isMsg()   {}
func (SetValidatingMsg) isMsg()   {}
func (SubmitAttemptMsg) isMsg()   {}
func (SubmitSuccessMsg) isMsg()   {}
func (SubmitFailureMsg) isMsg()   {}
func (ResetMsg) isMsg()           {}
