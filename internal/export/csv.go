package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"BPOrganizer.api/internal/models"
)

const (
	// CSVFileName is the download name for the readings table.
	CSVFileName    = "blood_pressure_readings.csv"
	CSVContentType = "text/csv;charset=utf-8"

	missing = "N/A"
)

// Header is the column order shared by every export.
var Header = []string{"Date", "Time", "Systolic", "Diastolic", "Pulse"}

// Row renders one reading in Header order, with N/A for missing fields.
func Row(r models.Reading) []string {
	pulse := missing
	if r.Pulse != nil {
		pulse = strconv.Itoa(*r.Pulse)
	}
	return []string{
		valueOr(r.Date),
		valueOr(r.Time),
		strconv.Itoa(r.Systolic),
		strconv.Itoa(r.Diastolic),
		pulse,
	}
}

// WriteCSV writes the header and one row per reading.
func WriteCSV(w io.Writer, readings []models.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range readings {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func valueOr(v string) string {
	if v == "" {
		return missing
	}
	return v
}
