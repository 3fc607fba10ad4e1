package models

// Severity of a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Notification is the transient message shown after a submission
type Notification struct {
	Visible  bool     `json:"visible"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// LoadingState is the value of the page-level loading indicator
type LoadingState string

const (
	LoadingIdle LoadingState = "idle"
	LoadingSet  LoadingState = "SET_LOADING"
	LoadingDone LoadingState = "LOADED"
)

// Active reports whether the loading indicator should be shown
func (s LoadingState) Active() bool {
	return s == LoadingSet
}

// FallbackMessage is shown when a failed login carries no usable message
const FallbackMessage = "something went wrong"

// SuccessMessage is shown after a successful login
const SuccessMessage = "success"

// InFlightMessage is shown when a second submission arrives while the
// first is still waiting on the server
const InFlightMessage = "sign-in already in progress"
