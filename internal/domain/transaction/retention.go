package transaction

import "time"

type yearMonth struct {
	year  int
	month time.Month
}

func yearMonthOf(t time.Time) yearMonth {
	return yearMonth{year: t.Year(), month: t.Month()}
}

// Transaction dates are calendar dates, so they are compared on their own
// fields while now is read in its own location.
func currentAndPrevious(now time.Time) (yearMonth, yearMonth) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return yearMonthOf(firstOfMonth), yearMonthOf(firstOfMonth.AddDate(0, -1, 0))
}

// IsReviewed reports whether a transaction dated date counts as already seen:
// anything outside the current calendar month is treated as reviewed.
func IsReviewed(date, now time.Time) bool {
	current, _ := currentAndPrevious(now)
	return yearMonthOf(date) != current
}

// InRetentionWindow reports whether date falls in the current or previous calendar month.
func InRetentionWindow(date, now time.Time) bool {
	current, previous := currentAndPrevious(now)
	ym := yearMonthOf(date)
	return ym == current || ym == previous
}

// Retain returns the transactions inside the retention window, preserving order.
func Retain(txs []*Transaction, now time.Time) []*Transaction {
	kept := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if InRetentionWindow(tx.Date, now) {
			kept = append(kept, tx)
		}
	}
	return kept
}

// Unreviewed returns the transactions whose Reviewed flag is false.
func Unreviewed(txs []*Transaction) []*Transaction {
	var out []*Transaction
	for _, tx := range txs {
		if !tx.Reviewed {
			out = append(out, tx)
		}
	}
	return out
}
