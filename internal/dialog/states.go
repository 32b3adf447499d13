package dialog

// Dialog states stored in the session record. StateEnd is never stored:
// stopping deletes the session instead.
const (
	StateStart            = ""
	StateSelectingAction  = "selecting_action"
	StateAddReminder      = "add_reminder"
	StateParseReminder    = "parse_reminder"
	StateCancelAllConfirm = "cancel_all_confirm"
)
