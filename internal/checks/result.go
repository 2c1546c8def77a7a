package checks

type Status string

const (
	StatusPass  Status = "PASS"
	StatusFixed Status = "FIXED"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Result is the typed outcome of one check.
type Result struct {
	CheckID string `json:"check_id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// Changes counts writes the check performed.
	Changes int `json:"changes,omitempty"`
	// Err is set for StatusError.
	Err error `json:"-"`
}

func NewResult(checkID string, status Status, message string) Result {
	return Result{CheckID: checkID, Status: status, Message: message}
}

func PassResult(checkID, message string) Result {
	return NewResult(checkID, StatusPass, message)
}

func FixedResult(checkID, message string, changes int) Result {
	res := NewResult(checkID, StatusFixed, message)
	res.Changes = changes
	return res
}

func FailResult(checkID, message string) Result {
	return NewResult(checkID, StatusFail, message)
}

func ErrorResult(checkID, message string, err error) Result {
	res := NewResult(checkID, StatusError, message)
	res.Err = err
	return res
}
