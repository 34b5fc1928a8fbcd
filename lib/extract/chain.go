// Package extract implements the per-field fallback chains shared by
// the source adapters: each field is recovered by an explicit ordered
// list of strategies, tried in sequence until one produces a value.
// Precedence is data, not control flow, so it can be tested in
// isolation from HTML shape.
package extract

// Step is one strategy in a fallback chain. Run returns "" when the
// strategy found nothing.
type Step struct {
	Name string
	Run  func() string
}

// First applies steps in order, returning the first non-empty value
// and the name of the step that produced it. No later step runs once
// a step succeeds.
func First(steps ...Step) (value string, step string) {
	for _, s := range steps {
		if v := s.Run(); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}
