package feerate

// rateWindow is a bounded FIFO of the last accepted fee rates, oldest first.
// It only ever holds rates that were actually observed upstream.
type rateWindow struct {
	rates    []int64
	capacity int
}

func newRateWindow(capacity int) *rateWindow {
	return &rateWindow{
		rates:    make([]int64, 0, capacity),
		capacity: capacity,
	}
}

// push appends a rate, evicting the oldest entry when the window is full.
func (w *rateWindow) push(rate int64) {
	if len(w.rates) == w.capacity {
		w.rates = w.rates[1:]
	}

	w.rates = append(w.rates, rate)
}

// average returns the arithmetic mean of the window, truncated toward zero.
func (w *rateWindow) average() int64 {
	if len(w.rates) == 0 {
		return 0
	}

	sum := int64(0)
	for _, r := range w.rates {
		sum += r
	}

	return sum / int64(len(w.rates))
}

func (w *rateWindow) len() int {
	return len(w.rates)
}
