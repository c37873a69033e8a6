package saver

import (
	"github.com/parquet-go/parquet-go"

	"vwapscan/internal/model"
)

// ParquetSaver writes rows as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []model.Row, path string) error {
	return parquet.WriteFile(path, rows)
}
