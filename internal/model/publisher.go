package model

// Publisher defines a generic interface for announcing finished reports.
type Publisher interface {
	Publish(report *Report) error
}
