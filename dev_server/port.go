package dev_server

import (
	"fmt"
	"net"
)

func portFree(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// reservePort returns the supervisor's port. The first call probes from the
// configured port upwards and pins the first free one; later calls only
// verify that the pinned port is still free, since the previous child has
// already been stopped by then.
func (s *Supervisor) reservePort() (int, error) {
	if s.port != 0 {
		if !portFree(s.port) {
			return 0, fmt.Errorf("%w: %d", ErrPortInUse, s.port)
		}
		return s.port, nil
	}

	for offset := 0; offset <= s.config.PortRetries; offset++ {
		candidate := s.config.Port + offset
		if portFree(candidate) {
			if offset > 0 {
				s.logger.Warn("configured dev server port is busy, using the next free one",
					s.logger.Args("configured", s.config.Port, "port", candidate))
			}
			s.state.Lock()
			s.port = candidate
			s.state.Unlock()
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: %d-%d", ErrPortInUse, s.config.Port, s.config.Port+s.config.PortRetries)
}
