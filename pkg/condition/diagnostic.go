// ABOUTME: Recoverable diagnostics raised while filtering
// ABOUTME: Collector merges repeated issues within one call

package condition

import "fmt"

// DiagnosticKind classifies a recoverable data-quality issue.
type DiagnosticKind uint8

const (
	MalformedCondition DiagnosticKind = iota + 1
	TypeMismatch
)

func (k DiagnosticKind) String() string {
	switch k {
	case MalformedCondition:
		return "malformed_condition"
	case TypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// Diagnostic is a recoverable issue raised while filtering. Queries keep
// running and return partial results.
type Diagnostic struct {
	Kind DiagnosticKind
	// Condition is the index of the condition in the where list, or -1.
	Condition int
	// Count is how many times the same issue was raised during one call.
	Count int
	Err   error
}

func (d Diagnostic) String() string {
	if d.Condition < 0 {
		return fmt.Sprintf("%s: %v", d.Kind, d.Err)
	}
	return fmt.Sprintf("%s in condition %d: %v", d.Kind, d.Condition, d.Err)
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Collector accumulates diagnostics, merging repeats of the same issue.
// It is not safe for concurrent use.
type Collector struct {
	list  []Diagnostic
	index map[string]int
}

func (c *Collector) Report(d Diagnostic) {
	if d.Count == 0 {
		d.Count = 1
	}
	key := fmt.Sprintf("%d/%d/%v", d.Kind, d.Condition, d.Err)
	if i, ok := c.index[key]; ok {
		c.list[i].Count += d.Count
		return
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[key] = len(c.list)
	c.list = append(c.list, d)
}

// Diagnostics returns the collected diagnostics in first-seen order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.list))
	copy(out, c.list)
	return out
}

// Len returns the number of distinct diagnostics.
func (c *Collector) Len() int {
	return len(c.list)
}
