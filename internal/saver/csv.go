package saver

import (
	"os"

	"github.com/gocarina/gocsv"

	"vwapscan/internal/model"
)

// CSVSaver writes rows as CSV with a header from the csv struct tags.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []model.Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}
