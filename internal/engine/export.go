package engine

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Games"

// WriteCSV writes the view with the canonical header.
func WriteCSV(w io.Writer, v View) error {
	rec := buildRecord(v)
	defer rec.Release()

	cw := csv.NewWriter(w, Schema, csv.WithHeader(true))
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return cw.Error()
}

func buildRecord(v View) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, Schema)
	defer b.Release()

	cs := v.Store
	for _, r := range v.Rows {
		b.Field(0).(*array.StringBuilder).Append(cs.Names[r])
		b.Field(1).(*array.StringBuilder).Append(cs.PlatformDict[cs.PlatformIDs[r]])
		b.Field(2).(*array.Int64Builder).Append(int64(cs.Years[r]))
		b.Field(3).(*array.StringBuilder).Append(cs.GenreDict[cs.GenreIDs[r]])
		b.Field(4).(*array.StringBuilder).Append(cs.PublisherDict[cs.PublisherIDs[r]])
		b.Field(5).(*array.Float64Builder).Append(cs.NASales[r])
		b.Field(6).(*array.Float64Builder).Append(cs.EUSales[r])
		b.Field(7).(*array.Float64Builder).Append(cs.JPSales[r])
		b.Field(8).(*array.Float64Builder).Append(cs.OtherSales[r])
		b.Field(9).(*array.Float64Builder).Append(cs.GlobalSales[r])
	}
	return b.NewRecord()
}

// WriteXLSX writes the view as a single-sheet workbook.
func WriteXLSX(w io.Writer, v View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	for i, h := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range v.Records() {
		row := []interface{}{
			rec.Name, rec.Platform, rec.Year, rec.Genre, rec.Publisher,
			rec.NASales, rec.EUSales, rec.JPSales, rec.OtherSales, rec.GlobalSales,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
