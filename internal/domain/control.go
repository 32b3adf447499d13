package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadControl marks a callback token that cannot be decoded, typically a
// button from a previous bot instance.
var ErrBadControl = errors.New("unrecognized control token")

type ControlAction string

const (
	ActionAddReminder ControlAction = "add"
	ActionShow        ControlAction = "show"
	ActionCancelAll   ControlAction = "cancel_all"
	ActionConfirm     ControlAction = "confirm"
	ActionDecline     ControlAction = "decline"
	ActionBack        ControlAction = "back"
	ActionStop        ControlAction = "stop"
	ActionCancelJob   ControlAction = "cancel"
)

// Control is the decoded payload of an inline button press.
type Control struct {
	Action  ControlAction
	JobName string
}

// Encode renders the control as an opaque callback token.
func (c Control) Encode() string {
	if c.Action == ActionCancelJob {
		return fmt.Sprintf("%s:%s", c.Action, c.JobName)
	}
	return string(c.Action)
}

// ParseControl decodes a callback token produced by Encode.
func ParseControl(token string) (Control, error) {
	action, jobName, hasName := strings.Cut(token, ":")
	switch ControlAction(action) {
	case ActionAddReminder, ActionShow, ActionCancelAll,
		ActionConfirm, ActionDecline, ActionBack, ActionStop:
		if hasName {
			return Control{}, fmt.Errorf("%w: %q", ErrBadControl, token)
		}
		return Control{Action: ControlAction(action)}, nil
	case ActionCancelJob:
		if !hasName || jobName == "" {
			return Control{}, fmt.Errorf("%w: %q", ErrBadControl, token)
		}
		return Control{Action: ActionCancelJob, JobName: jobName}, nil
	default:
		return Control{}, fmt.Errorf("%w: %q", ErrBadControl, token)
	}
}
