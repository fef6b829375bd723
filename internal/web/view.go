package web

import (
	"fmt"
	"time"

	"github.com/simonwood/canmon/internal/engine"
)

// byteView is one payload byte ready for rendering.
type byteView struct {
	Hex       string
	Highlight bool
}

// rowView is one table row for either the latest-state or the
// recent-changes table.
type rowView struct {
	ID         string
	Length     uint8
	Bytes      []byteView
	ObservedAt string
	AgeMS      int64
	AgeClass   string
	ChangedAt  string
}

// Age thresholds for the color coding in the latest-state table, matching
// the web view's legend: green under a second, orange under five.
const (
	ageFreshBelow  = time.Second
	ageMediumBelow = 5 * time.Second
)

func ageClass(age time.Duration) string {
	switch {
	case age < ageFreshBelow:
		return "age-fresh"
	case age < ageMediumBelow:
		return "age-medium"
	default:
		return "age-old"
	}
}

// newRowView converts an engine row into its rendered form.
func newRowView(row engine.Row) rowView {
	v := rowView{
		ID:         fmt.Sprintf("0x%X", row.ID),
		Length:     row.Latest.Length,
		ObservedAt: row.Latest.ObservedAt.Format("15:04:05.000"),
		AgeMS:      row.Age.Milliseconds(),
		AgeClass:   ageClass(row.Age),
	}
	if !row.LastChangeAt.IsZero() {
		v.ChangedAt = row.LastChangeAt.Format("15:04:05.000")
	}
	for i := uint8(0); i < row.Latest.Length; i++ {
		v.Bytes = append(v.Bytes, byteView{
			Hex:       fmt.Sprintf("%02x", row.Latest.Data[i]),
			Highlight: row.Changed[i],
		})
	}
	return v
}

func newRowViews(rows []engine.Row) []rowView {
	views := make([]rowView, len(rows))
	for i, row := range rows {
		views[i] = newRowView(row)
	}
	return views
}
