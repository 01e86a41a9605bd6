package worker

// Outcome is the kind of Result an extraction produced.
type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeUnsupported
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeUnsupported:
		return "unsupported"
	default:
		return "failed"
	}
}

// Result is the outcome of turning one stored file into prompt text.
type Result struct {
	Outcome Outcome
	Text    string
	Stage   string // set when Failed
	Err     error  // set when Failed
}

func Ok(text string) Result {
	return Result{Outcome: OutcomeOk, Text: text}
}

func Unsupported() Result {
	return Result{Outcome: OutcomeUnsupported}
}

func Failed(stage string, err error) Result {
	return Result{Outcome: OutcomeFailed, Stage: stage, Err: err}
}
