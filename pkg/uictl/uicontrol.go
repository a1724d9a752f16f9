// Package uictl defines the read-only controls UI components poll for data
// owned elsewhere.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Levels is a control that reads the most recent window of sample values.
type Levels[N Number] interface {
	Read() []N
}
