package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

// ImportExportService handles bulk file exchange: grade exports and
// student roster imports, both in CSV and XLSX.
type ImportExportService interface {
	ExportGrades(ctx context.Context, format string, caller Caller) (*ExportResult, error)
	ImportStudents(ctx context.Context, fileName string, file io.Reader, caller Caller) (*ImportResult, error)
}

type ExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

type ImportResult struct {
	JobID    string     `json:"job_id"`
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// RowError reports one rejected import row. Row numbers are 1-based and
// include the header row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type importExportService struct {
	perms     config.Permissions
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewImportExportService(perms config.Permissions, repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) ImportExportService {
	return &importExportService{
		perms:     perms,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

var gradeExportHeader = []string{"student_first_name", "student_last_name", "course_name", "course_code", "grade", "date"}

func (s *importExportService) ExportGrades(ctx context.Context, format string, caller Caller) (*ExportResult, error) {
	if !s.perms.Allowed(config.ActionGradeWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "grade", "export", "insufficient role permissions")
	}

	grades, err := s.repo.Grade().List(ctx, repositories.GradeFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load grades: %w", err)
	}

	rows := make([][]string, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, []string{
			g.Student.FirstName,
			g.Student.LastName,
			g.Course.Name,
			g.Course.Code,
			fmt.Sprintf("%.2f", g.Grade),
			g.Date.Format(time.DateOnly),
		})
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	switch strings.ToLower(format) {
	case "", "csv":
		data, err := writeCSV(gradeExportHeader, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to write csv: %w", err)
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("grades_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "xlsx":
		data, err := writeXLSX("Grades", gradeExportHeader, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to write xlsx: %w", err)
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("grades_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, NewValidationError("format", "must be csv or xlsx", format)
	}
}

func (s *importExportService) ImportStudents(ctx context.Context, fileName string, file io.Reader, caller Caller) (*ImportResult, error) {
	if !s.perms.Allowed(config.ActionStudentWrite, caller.Role) {
		return nil, NewPermissionError(caller.UserID, "student", "import", "insufficient role permissions")
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", "":
		rows, err = readCSV(file)
	case ".xlsx":
		rows, err = readXLSX(file)
	default:
		return nil, NewValidationError("file", "must be a .csv or .xlsx file", fileName)
	}
	if err != nil {
		return nil, NewValidationError("file", fmt.Sprintf("could not parse file: %v", err), fileName)
	}
	if len(rows) == 0 {
		return nil, NewValidationError("file", "file is empty", fileName)
	}

	columns, err := mapStudentColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{JobID: uuid.New().String()}
	for i, row := range rows[1:] {
		rowNum := i + 2
		req := studentRowToRequest(row, columns)
		if err := s.validator.Validate(req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		student := &models.Student{
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			student.Email = &email
		}
		if err := s.repo.Student().Create(ctx, student); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("could not save: %v", err)})
			continue
		}
		result.Imported++
	}

	s.logger.Info("Student import finished",
		"job_id", result.JobID, "imported", result.Imported, "failed", result.Failed, "imported_by", caller.UserID)
	return result, nil
}

// mapStudentColumns resolves header names to column indexes. Matching is
// case-insensitive and tolerates spaces in place of underscores.
func mapStudentColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		columns[key] = i
	}
	for _, required := range []string{"first_name", "last_name"} {
		if _, ok := columns[required]; !ok {
			return nil, NewValidationError("file", fmt.Sprintf("missing required column %q", required), nil)
		}
	}
	return columns, nil
}

func studentRowToRequest(row []string, columns map[string]int) *CreateStudentRequest {
	cell := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	req := &CreateStudentRequest{
		FirstName: cell("first_name"),
		LastName:  cell("last_name"),
	}
	if email := cell("email"); email != "" {
		req.Email = &email
	}
	return req
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func writeXLSX(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheet)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}
