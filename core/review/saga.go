package review

// Status is the combined outcome of a cascade delete.
type Status int

const (
	Succeeded Status = iota
	Partial
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Partial:
		return "partial"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is one delete in a cascade, named after the records it removes.
type Step struct {
	Name string
	Err  error
}

// Result reports a cascade delete step by step. Steps run sequentially and
// earlier successes are never rolled back; a failed step leaves its records
// behind and the next step still runs.
type Result struct {
	Steps []Step
}

func (r *Result) add(name string, err error) {
	r.Steps = append(r.Steps, Step{Name: name, Err: err})
}

// Status folds the steps into one outcome: all passed, all failed, or a mix.
func (r Result) Status() Status {
	var failed int
	for _, step := range r.Steps {
		if step.Err != nil {
			failed++
		}
	}
	switch failed {
	case 0:
		return Succeeded
	case len(r.Steps):
		return Failed
	default:
		return Partial
	}
}
