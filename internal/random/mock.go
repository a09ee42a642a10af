package random

// Mock implements Random with a queue of predetermined results, for
// deterministic tests. When the queue is empty Intn returns 0.
type Mock struct {
	Results []int
}

func (m *Mock) Intn(n int) int {
	if len(m.Results) == 0 {
		return 0
	}
	r := m.Results[0]
	m.Results = m.Results[1:]
	if n > 0 {
		r = r % n
	}
	return r
}

var _ Random = (*Mock)(nil)
