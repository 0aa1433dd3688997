package core

func (r *Root) tracef(format string, args ...any) {
	if r.opts.Trace != nil {
		r.opts.Trace(format, args...)
	}
}
