package diskstorage

// Close marks the storage closed. Every later call returns ErrClosed; the
// index itself is left untouched. Close is idempotent.
func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
