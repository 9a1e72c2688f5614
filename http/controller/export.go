package controller

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/schema"
	"github.com/fieldworks/artifact-capture/utils"
)

// ExportCSV streams every record of the object type as CSV: id, the schema
// fields in declaration order, then the system columns.
func (ctrl *Controller) ExportCSV(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	records, err := ctrl.Repository.RecordRepo.All(s)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Export] Failed to read %s records: %v", s.OType, err)
		utils.JSON500(c, "Failed to export records")
		return
	}

	header := []string{entity.ColID}
	fieldCols := make([]string, 0, len(s.Fields))
	for i := range s.Fields {
		col := s.Fields[i].Column
		if entity.SystemColumns[col] {
			continue
		}
		fieldCols = append(fieldCols, col)
	}
	header = append(header, fieldCols...)
	header = append(header,
		entity.ColGPSLat, entity.ColGPSLon, entity.ColGPSAlt, entity.ColGPSAcc,
		entity.ColImages, entity.ColThumbs, entity.ColWebps, entity.ColSidecars,
		entity.ColLastSaved)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.OType+".csv"))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(header)
	for i := range records {
		rec := &records[i]
		row := []string{fmt.Sprintf("%d", rec.ID)}
		for _, col := range fieldCols {
			row = append(row, cellString(rec.Values[col]))
		}
		row = append(row,
			floatCell(rec.GPS.Lat), floatCell(rec.GPS.Lon), floatCell(rec.GPS.Alt), floatCell(rec.GPS.Acc),
			strings.Join(rec.Images, ";"), strings.Join(rec.Thumbs, ";"),
			strings.Join(rec.Webps, ";"), strings.Join(rec.Sidecars, ";"),
			rec.DateLastSaved)
		_ = w.Write(row)
	}
	w.Flush()
}

// ExportGeoJSON emits a FeatureCollection with a Point feature for every
// record carrying a GPS fix. Records without coordinates are skipped.
func (ctrl *Controller) ExportGeoJSON(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	records, err := ctrl.Repository.RecordRepo.All(s)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Export] Failed to read %s records: %v", s.OType, err)
		utils.JSON500(c, "Failed to export records")
		return
	}

	features := make([]gin.H, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !rec.GPS.Valid() {
			continue
		}
		coords := []float64{*rec.GPS.Lon, *rec.GPS.Lat}
		if rec.GPS.Alt != nil {
			coords = append(coords, *rec.GPS.Alt)
		}
		properties := gin.H{
			"id":     rec.ID,
			"otype":  rec.OType,
			"images": rec.Images,
		}
		for k, v := range rec.Values {
			properties[k] = v
		}
		features = append(features, gin.H{
			"type":       "Feature",
			"geometry":   gin.H{"type": "Point", "coordinates": coords},
			"properties": properties,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"type":     "FeatureCollection",
		"features": features,
	})
}

// ImportCSV bulk-loads records from a CSV whose header names schema columns.
// Unparseable dates are cleared to null and counted rather than failing the
// row; rows missing a required field are skipped and counted.
func (ctrl *Controller) ImportCSV(c *gin.Context) {
	ctx := c.Request.Context()

	s := ctrl.schemaFor(c)
	if s == nil {
		utils.JSON404(c, "Unknown object type: "+c.Param("otype"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSON400(c, "A CSV file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.JSON400(c, "Failed to read CSV file: "+err.Error())
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		utils.JSON400(c, "Failed to parse CSV: "+err.Error())
		return
	}
	if len(rows) < 2 {
		utils.JSON400(c, "CSV must have a header row and at least one data row")
		return
	}

	header := rows[0]
	known := make([]bool, len(header))
	dateCols := make(map[string]bool)
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		fd := s.Field(header[i])
		known[i] = fd != nil
		if fd != nil && (fd.Kind == entity.FieldDate || fd.Kind == entity.FieldTimestamp) {
			dateCols[header[i]] = true
		}
	}

	imported, skipped, clearedDates := 0, 0, 0
	for _, row := range rows[1:] {
		raw := make(map[string][]string, len(header))
		for i, cell := range row {
			if i >= len(header) || !known[i] {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			raw[header[i]] = append(raw[header[i]], cell)
			if dateCols[header[i]] && schema.ParseUserDate(cell) == "" && schema.ParseUserTimestamp(cell) == "" {
				clearedDates++
			}
		}

		values := schema.Coerce(s, raw, false)
		if len(schema.MissingRequired(s, values)) > 0 {
			skipped++
			continue
		}

		signature := schema.Signature(s, values)
		if _, err := ctrl.Repository.RecordRepo.Insert(s, values, signature, captureContext(c)); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Import] Failed to insert %s row: %v", s.OType, err)
			skipped++
			continue
		}
		imported++
	}

	utils.JSON200(c, gin.H{
		"imported":      imported,
		"skipped":       skipped,
		"cleared_dates": clearedDates,
	})
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
