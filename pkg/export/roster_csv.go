package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// RosterRow is one enrollment line in a course roster export. Repeat
// purchases by the same student appear as separate rows.
type RosterRow struct {
	StudentID   string
	PurchasedAt time.Time
}

// RosterCSVExporter renders a course roster into CSV bytes.
type RosterCSVExporter struct{}

// NewRosterCSVExporter builds a roster CSV exporter.
func NewRosterCSVExporter() *RosterCSVExporter {
	return &RosterCSVExporter{}
}

// Render produces CSV encoded bytes for the roster.
func (e *RosterCSVExporter) Render(courseID int64, rows []RosterRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"course_id", "student_id", "purchased_at"}); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	id := strconv.FormatInt(courseID, 10)
	for _, row := range rows {
		record := []string{id, row.StudentID, row.PurchasedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
