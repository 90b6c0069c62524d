// Package dataset loads numeric CSV datasets for training and scoring.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/estimators"
)

var (
	ErrNoHeader      = errors.New("csv has no header row")
	ErrNoRows        = errors.New("csv has no data rows")
	ErrUnknownTarget = errors.New("target column not found")
)

// Load reads a CSV file with a header row and splits out the named target
// column. An empty target loads every column as a feature, leaving Y empty.
func Load(path, target string) (estimators.Dataset, error) {
	fd, err := os.Open(path)
	if err != nil {
		return estimators.Dataset{}, errors.Wrap(err, "unable to open dataset")
	}
	defer fd.Close()

	ds, err := Read(fd, target)

	return ds, errors.Wrapf(err, "unable to read %s", path)
}

// Read parses CSV from a reader. The first row is the header.
func Read(rd io.Reader, target string) (estimators.Dataset, error) {
	crd := csv.NewReader(rd)

	header, err := crd.Read()
	if errors.Is(err, io.EOF) {
		return estimators.Dataset{}, ErrNoHeader
	} else if err != nil {
		return estimators.Dataset{}, errors.Wrap(err, "unable to read header")
	}

	targetIdx := -1
	for i, name := range header {
		if target != "" && name == target {
			targetIdx = i

			break
		}
	}
	if target != "" && targetIdx < 0 {
		return estimators.Dataset{}, errors.Wrap(ErrUnknownTarget, target)
	}

	var ds estimators.Dataset
	for row := 1; ; row++ {
		record, err := crd.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return estimators.Dataset{}, errors.Wrapf(err, "unable to read row %d", row)
		}

		features := make([]float64, 0, len(record))
		for col, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return estimators.Dataset{}, errors.Wrapf(err, "unable to parse row %d column %s", row, header[col])
			}
			if col == targetIdx {
				ds.Y = append(ds.Y, value)

				continue
			}
			features = append(features, value)
		}
		ds.X = append(ds.X, features)
	}

	if len(ds.X) == 0 {
		return estimators.Dataset{}, ErrNoRows
	}

	return ds, nil
}
