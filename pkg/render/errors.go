package render

// DefaultWarningIcon is the indicator shown next to an error message.
const DefaultWarningIcon = "⚠"

// ErrorAlert is the displayable form of a failed submission.
type ErrorAlert struct {
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// ErrorView returns an alert for message. It reports false when there is
// nothing to show. The message is kept verbatim.
func ErrorView(message string) (ErrorAlert, bool) {
	if message == "" {
		return ErrorAlert{}, false
	}
	return ErrorAlert{Message: message, Icon: DefaultWarningIcon}, true
}
