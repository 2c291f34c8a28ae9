package replay

// Status is the lifecycle of a replay stream.
type Status string

const (
	StatusInitializing Status = "INITIALIZING"
	StatusRunning      Status = "RUNNING"
	StatusStopped      Status = "STOPPED"
	StatusError        Status = "ERROR"
)

var statuses = []Status{StatusInitializing, StatusRunning, StatusStopped, StatusError}

func (s Status) String() string {
	return string(s)
}
