package series

// Buffer is a capacity-bounded FIFO window of samples, oldest first.
type Buffer struct {
	points []Sample
	max    int
}

// NewBuffer creates an empty buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Buffer{
		points: make([]Sample, 0, capacity),
		max:    capacity,
	}
}

// Push appends a sample, evicting the oldest one when the buffer is full.
func (b *Buffer) Push(s Sample) {
	if len(b.points) >= b.max {
		copy(b.points, b.points[1:])
		b.points[len(b.points)-1] = s
		return
	}
	b.points = append(b.points, s)
}

// Len returns the number of samples held.
func (b *Buffer) Len() int { return len(b.points) }

// Last returns the most recent sample and whether there is one.
func (b *Buffer) Last() (Sample, bool) {
	if len(b.points) == 0 {
		return Sample{}, false
	}
	return b.points[len(b.points)-1], true
}

// Samples returns a copy of the window in chronological order.
func (b *Buffer) Samples() []Sample {
	out := make([]Sample, len(b.points))
	copy(out, b.points)
	return out
}

// Labels returns the clock label of every sample, oldest first.
func (b *Buffer) Labels() []string {
	labels := make([]string, len(b.points))
	for i, p := range b.points {
		labels[i] = p.ClockLabel()
	}
	return labels
}

// Values returns the heart rates, oldest first.
func (b *Buffer) Values() []int {
	vals := make([]int, len(b.points))
	for i, p := range b.points {
		vals[i] = p.HeartRate
	}
	return vals
}

// Recent returns up to n samples, newest first.
func (b *Buffer) Recent(n int) []Sample {
	if n <= 0 || len(b.points) == 0 {
		return nil
	}
	if n > len(b.points) {
		n = len(b.points)
	}
	out := make([]Sample, 0, n)
	for i := len(b.points) - 1; i >= len(b.points)-n; i-- {
		out = append(out, b.points[i])
	}
	return out
}
