package domain

// Verdict is the result of content validation.
type Verdict struct {
	Valid  bool
	Reason string
}

func Accepted() Verdict {
	return Verdict{Valid: true}
}

func Rejected(reason string) Verdict {
	return Verdict{Valid: false, Reason: reason}
}
