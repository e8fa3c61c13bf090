package resource

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/devskill-org/microgrid-sim/errs"
)

// LoadCSV1D reads a two-column CSV (time [hrs], value) with a header row,
// as used for the electrical load file and every scalar resource file
// (solar GHI, tidal/wind speed, hydro inflow).
func LoadCSV1D(path string) (times, values []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &errs.IOError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	if _, err := r.Read(); err != nil { // header
		return nil, nil, &errs.IOError{Path: path, Err: err}
	}

	row := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &errs.IOError{Path: path, Err: err}
		}
		row++

		tv, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, &errs.ParseError{Path: path, Row: row, Col: 0, Err: err}
		}
		vv, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, &errs.ParseError{Path: path, Row: row, Col: 1, Err: err}
		}

		if len(times) > 0 && tv <= times[len(times)-1] {
			return nil, nil, &errs.ParseError{Path: path, Row: row, Col: 0, Err: errStrictlyIncreasing}
		}

		times = append(times, tv)
		values = append(values, vv)
	}

	return times, values, nil
}

// errStrictlyIncreasing is the sentinel wrapped into a ParseError when a
// load or resource file's time column is not strictly increasing.
var errStrictlyIncreasing = strictlyIncreasingError{}

type strictlyIncreasingError struct{}

func (strictlyIncreasingError) Error() string { return "time column must be strictly increasing" }

// LoadWaveCSV reads a three-column wave resource CSV (time [hrs],
// significant wave height H_s [m], energy period T_e [s]) with a header
// row. Unlike the scalar resources, each wave time step carries two
// values that together key the wave performance lookup table.
func LoadWaveCSV(path string) (times, hs, te []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, &errs.IOError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	if _, err := r.Read(); err != nil { // header
		return nil, nil, nil, &errs.IOError{Path: path, Err: err}
	}

	row := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, &errs.IOError{Path: path, Err: err}
		}
		row++

		tv, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, nil, &errs.ParseError{Path: path, Row: row, Col: 0, Err: err}
		}
		hv, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, nil, &errs.ParseError{Path: path, Row: row, Col: 1, Err: err}
		}
		ev, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, nil, nil, &errs.ParseError{Path: path, Row: row, Col: 2, Err: err}
		}

		times = append(times, tv)
		hs = append(hs, hv)
		te = append(te, ev)
	}

	return times, hs, te, nil
}
