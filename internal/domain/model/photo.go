package model

// PhotoSubmission is a single proof-of-completion screenshot uploaded for an
// order stage. Stage here is one-based: it names the stage the customer is
// completing, matching what operators see in captions.
type PhotoSubmission struct {
	ID        int64
	OrderID   int64
	Stage     int
	MediaRef  string
	Confirmed bool
}
