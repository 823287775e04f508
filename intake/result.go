package intake

import "encoding/json"

// Kind names the step a submission failed at.
type Kind string

const (
	KindParse       Kind = "parse"
	KindSheetAccess Kind = "sheet_access"
	KindAppend      Kind = "append"
	KindEmailSend   Kind = "email_send"
)

// Failure records which step failed and why.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of one submission. A nil Failure means success.
type Result struct {
	Failure *Failure
}

func (r Result) OK() bool { return r.Failure == nil }

func fail(kind Kind, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Err: err}}
}

type wireResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON renders {"success":true} or {"success":false,"error":"..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.OK() {
		return json.Marshal(wireResult{Success: true})
	}
	return json.Marshal(wireResult{Error: r.Failure.Error()})
}
