package schedule

type frame struct {
	options Options
	// complete marks frames whose interval already fixes the time of day.
	complete bool
}

// scope is the frame stack of an evaluation. The bottom frame is empty and
// never released.
type scope struct {
	frames []frame
}

func newScope() *scope {
	return &scope{frames: []frame{{options: Options{}}}}
}

func (s *scope) current() Options {
	return s.frames[len(s.frames)-1].options
}

func (s *scope) complete() bool {
	return s.frames[len(s.frames)-1].complete
}

func (s *scope) depth() int {
	return len(s.frames)
}

// push merges overlay over the current frame and makes the result current.
// The returned release restores the stack to its state before the push and
// is meant to be deferred.
func (s *scope) push(overlay Options, complete bool) (release func()) {
	n := len(s.frames)
	s.frames = append(s.frames, frame{
		options:  mergeOptions(s.current(), overlay),
		complete: complete,
	})
	return func() {
		s.frames = s.frames[:n]
	}
}
