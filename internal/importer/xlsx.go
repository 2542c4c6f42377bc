package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/gisa-quiz/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// Header aliases accepted in the first row of a spreadsheet.
var columnAliases = map[string]string{
	"id":          "id",
	"category":    "category",
	"과목":          "category",
	"type":        "type",
	"유형":          "type",
	"question":    "question",
	"문제":          "question",
	"option1":     "option1",
	"보기1":         "option1",
	"option2":     "option2",
	"보기2":         "option2",
	"option3":     "option3",
	"보기3":         "option3",
	"option4":     "option4",
	"보기4":         "option4",
	"answer":      "answer",
	"정답":          "answer",
	"explanation": "explanation",
	"해설":          "explanation",
	"cheat_key":   "cheat_key",
	"치트키":         "cheat_key",
	"strategy":    "strategy",
	"전략":          "strategy",
}

var requiredColumns = []string{"category", "type", "question", "option1", "option2", "option3", "option4", "answer"}

// ParseXLSX reads questions from a spreadsheet. The first row is a header;
// sheet defaults to the first sheet of the workbook.
func ParseXLSX(r io.Reader, sheet string) ([]models.Question, models.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.ImportResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, models.ImportResult{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, models.ImportResult{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, models.ImportResult{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		if key, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			columns[key] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			return nil, models.ImportResult{}, fmt.Errorf("missing column %q", c)
		}
	}

	cell := func(row []string, key string) string {
		i, ok := columns[key]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		records = append(records, Record{
			ID:       cell(row, "id"),
			Category: cell(row, "category"),
			Type:     cell(row, "type"),
			Question: cell(row, "question"),
			Options: []string{
				cell(row, "option1"),
				cell(row, "option2"),
				cell(row, "option3"),
				cell(row, "option4"),
			},
			Answer:      cell(row, "answer"),
			Explanation: cell(row, "explanation"),
			CheatKey:    cell(row, "cheat_key"),
			Strategy:    cell(row, "strategy"),
		})
	}

	questions, result := BuildAll(records)
	return questions, result, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
