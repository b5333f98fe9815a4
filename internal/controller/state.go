package controller

type Phase int

const (
	Idle Phase = iota
	Submitting
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller. Transitions return a new value
// and never modify the receiver.
type State struct {
	Phase  Phase
	Prompt string
	// Image is the last successfully generated data URI, "" until then.
	Image string
	Busy  bool
}

func (s State) withPrompt(prompt string) State {
	s.Prompt = prompt
	return s
}

func (s State) submitting(prompt string) State {
	s.Phase, s.Prompt, s.Busy = Submitting, prompt, true
	return s
}

func (s State) succeeded(image string) State {
	s.Phase, s.Image, s.Busy = Success, image, false
	return s
}

// failed keeps the previous image.
func (s State) failed() State {
	s.Phase, s.Busy = Failed, false
	return s
}

func (s State) idle() State {
	s.Phase, s.Busy = Idle, false
	return s
}
