package form

import "github.com/goliatone/go-formstate/pkg/fieldpath"

// Reduce applies one message to a state record and returns the next record.
// It never mutates its input: tree writes are copy-on-write, so previous
// records stay valid snapshots. A message carrying a malformed path leaves
// the record unchanged; the engine's helpers reject bad paths before
// dispatching.
func Reduce(s State, m Msg) State {
	switch msg := m.(type) {
	case SetValuesMsg:
		s.Values = msg.Values

	case SetFieldValueMsg:
		if next, err := fieldpath.Set(s.Values, msg.Path, msg.Value); err == nil {
			s.Values = next
		}

	case SetErrorsMsg:
		s.Errors = msg.Errors

	case SetFieldErrorMsg:
		if msg.Message == "" {
			if next, err := fieldpath.Remove(s.Errors, msg.Path); err == nil {
				s.Errors = next
			}
			break
		}
		if next, err := fieldpath.Set(s.Errors, msg.Path, msg.Message); err == nil {
			s.Errors = next
		}

	case SetTouchedMsg:
		s.Touched = msg.Touched

	case SetFieldTouchedMsg:
		if next, err := fieldpath.Set(s.Touched, msg.Path, msg.Touched); err == nil {
			s.Touched = next
		}

	case SetStatusMsg:
		s.Status = msg.Status

	case SetSubmittingMsg:
		s.Submitting = msg.Submitting

	case SetValidatingMsg:
		s.Validating = msg.Validating

	case SubmitAttemptMsg:
		s.Touched, _ = fieldpath.FillLeaves(s.Values, true).(map[string]any)
		s.Submitting = true
		s.SubmitCount++

	case SubmitSuccessMsg:
		s.Submitting = false

	case SubmitFailureMsg:
		s.Submitting = false

	case ResetMsg:
		s = msg.State
	}
	return s
}
