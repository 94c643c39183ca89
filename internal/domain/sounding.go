package domain

import (
	"strconv"
	"time"
)

// Sounding is the extracted table of one report together with the metadata
// needed to name and render it. Fields are kept as the archive printed them.
type Sounding struct {
	Request     Request    `json:"-"`
	StationID   string     `json:"station_id"`
	StationName string     `json:"station_name"`
	ObservedAt  time.Time  `json:"observed_at"`
	Columns     []string   `json:"columns"`
	Units       []string   `json:"units"`
	Rows        [][]string `json:"rows"`
	FetchedAt   time.Time  `json:"fetched_at"`

	// DroppedRows counts lines between the markers whose field count did not
	// match the header.
	DroppedRows int `json:"dropped_rows,omitempty"`
}

// FolderName is the output directory name: the sanitized station name, or
// the station id when no name could be extracted.
func (s Sounding) FolderName() string {
	if s.StationName == "" {
		return s.Request.StationID
	}
	return s.StationName
}

// Profiles holds the vertical profiles most callers plot.
type Profiles struct {
	Pressure    []float64 // hPa
	Height      []float64 // m
	Temperature []float64 // C
}

// Profiles parses pressure, height, and temperature from the first three
// columns. Rows where any of the three is not a number are skipped.
func (s Sounding) Profiles() Profiles {
	var p Profiles
	for _, row := range s.Rows {
		if len(row) < 3 {
			continue
		}
		pres, errP := strconv.ParseFloat(row[0], 64)
		hght, errH := strconv.ParseFloat(row[1], 64)
		temp, errT := strconv.ParseFloat(row[2], 64)
		if errP != nil || errH != nil || errT != nil {
			continue
		}
		p.Pressure = append(p.Pressure, pres)
		p.Height = append(p.Height, hght)
		p.Temperature = append(p.Temperature, temp)
	}
	return p
}
