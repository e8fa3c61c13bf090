package interp

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/devskill-org/microgrid-sim/errs"
)

// LoadTable1DCSV reads a two-column CSV (x, y) with a required header row
// and returns the parsed columns. Any non-numeric cell outside the header
// raises a ParseError naming the offending row and column.
func LoadTable1DCSV(path string) (x, y []float64, err error) {
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

		xv, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, &errs.ParseError{Path: path, Row: row, Col: 0, Err: err}
		}
		yv, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, &errs.ParseError{Path: path, Row: row, Col: 1, Err: err}
		}

		x = append(x, xv)
		y = append(y, yv)
	}

	return x, y, nil
}

// LoadTable2DCSV reads a 2-D performance matrix CSV: the header row (minus
// its first cell) gives the x-axis values (e.g. significant wave height),
// the first column of each data row gives the y-axis value (e.g. energy
// period), and the remaining cells are the z matrix.
func LoadTable2DCSV(path string) (x, y []float64, z [][]float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, &errs.IOError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, nil, nil, &errs.IOError{Path: path, Err: err}
	}
	for col := 1; col < len(header); col++ {
		xv, err := strconv.ParseFloat(header[col], 64)
		if err != nil {
			return nil, nil, nil, &errs.ParseError{Path: path, Row: 0, Col: col, Err: err}
		}
		x = append(x, xv)
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

		yv, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, nil, &errs.ParseError{Path: path, Row: row, Col: 0, Err: err}
		}
		y = append(y, yv)

		zrow := make([]float64, len(x))
		for col := 1; col < len(rec); col++ {
			zv, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, nil, nil, &errs.ParseError{Path: path, Row: row, Col: col, Err: err}
			}
			zrow[col-1] = zv
		}
		z = append(z, zrow)
		row++
	}

	return x, y, z, nil
}
