package we

import (
	"errors"
	"fmt"
)

var RevisionConflict = errors.New("revision-conflict")

func ActionNotFound(action ActionType) ActionNotFoundError {
	return ActionNotFoundError{Action: action}
}

type ActionNotFoundError struct {
	Action ActionType
}

func (e ActionNotFoundError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Action)
}

func UnexpectedAction(action Action) UnexpectedActionError {
	return UnexpectedActionError{Action: ActionTypeOf(action)}
}

// UnexpectedActionError is returned when a reducer is handed an action of a type it was not
// registered for.
type UnexpectedActionError struct {
	Action ActionType
}

func (e UnexpectedActionError) Error() string {
	return fmt.Sprintf("unexpected action %s", e.Action)
}

func InvalidPayload(action ActionType, err error) InvalidPayloadError {
	return InvalidPayloadError{Action: action, Err: err}
}

// InvalidPayloadError is returned when a remote action's payload cannot be decoded.
type InvalidPayloadError struct {
	Action ActionType
	Err    error
}

func (e InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid payload for %s: %v", e.Action, e.Err)
}

func (e InvalidPayloadError) Unwrap() error {
	return e.Err
}
