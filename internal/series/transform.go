package series

// Seed builds a full buffer from samples ordered newest first, as the
// history endpoint returns them. Only the most recent capacity samples are
// kept and they are stored in chronological order.
func Seed(newestFirst []Sample, capacity int) *Buffer {
	b := NewBuffer(capacity)
	n := len(newestFirst)
	if n > b.max {
		n = b.max
	}
	for i := n - 1; i >= 0; i-- {
		b.Push(newestFirst[i])
	}
	return b
}

// Row is one line of the history table.
type Row struct {
	Time      string
	HeartRate int
	Status    Status
}

// Table returns the rows shown in the history table, newest first and
// capped at TableRows.
func Table(b *Buffer) []Row {
	recent := b.Recent(TableRows)
	rows := make([]Row, len(recent))
	for i, s := range recent {
		rows[i] = Row{
			Time:      s.RowTime(),
			HeartRate: s.HeartRate,
			Status:    s.Status(),
		}
	}
	return rows
}
