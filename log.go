package camcore

// debugf is an allocation-conscious debug hook, mirroring this repo's
// frame package's private _log function: a single call site that the
// capture path can sprinkle through ISR-adjacent code without pulling in
// the standard log package's formatting allocations. It is a no-op
// unless cfg.Debug is set, and even then never runs on the ISR stack
// itself - only from the worker goroutine.
func (s *Session) debugf(msg string, args ...byte) {
	if !s.cfg.Debug {
		return
	}
	println(msg, args)
}
