package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportFixedHeaders = []string{
	"APPLICATION ID",
	"APPLICANT EMAIL",
	"FIRST NAME",
	"LAST NAME",
	"STATUS",
	"APPLIED AT",
	"SKILLS",
}

// ExportApplications writes the applications of one of the recruiter's jobs
// to w as an XLSX workbook and returns the suggested file name. Each
// screening question gets its own column.
func (uc *applicationUsecase) ExportApplications(ctx context.Context, actor domain.Actor, jobID int64, w io.Writer) (string, error) {
	if jobID <= 0 {
		return "", apperror.BadRequest("Job: This field is required")
	}
	job, err := uc.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", apperror.NotFound("Job not found")
		}
		return "", apperror.Internal(err)
	}
	if actor.Role != domain.RoleHR || job.Recruiter != actor.ID {
		return "", apperror.Forbidden("You do not have permission to perform this action.")
	}

	apps, err := uc.applicationRepo.List(ctx, domain.ApplicationFilter{RecruiterID: actor.ID, JobID: jobID})
	if err != nil {
		return "", apperror.Internal(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return "", apperror.Internal(err)
	}

	questions := job.RequirementsSchema.Questions
	headers := append([]string{}, exportFixedHeaders...)
	for _, q := range questions {
		headers = append(headers, q.Text)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	// Dark blue header with white text
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(exportSheet, "A1", endCell, headerStyle)

	for rowIdx, app := range apps {
		row := exportRow(app, questions)
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, value)
		}
	}

	for i := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, colName, colName, 24)
	}

	if err := f.Write(w); err != nil {
		return "", apperror.Internal(fmt.Errorf("failed to write Excel file: %w", err))
	}
	return fmt.Sprintf("applications_job_%d_%s.xlsx", jobID, time.Now().Format("20060102_150405")), nil
}

func exportRow(app domain.Application, questions []domain.Question) []interface{} {
	var first, last, skills string
	if d := app.ApplicantDetails; d != nil {
		first, last = d.FirstName, d.LastName
		skills = strings.Join(d.Skills, ", ")
	}
	row := []interface{}{
		app.ID,
		app.ApplicantEmail,
		first,
		last,
		string(app.Status),
		app.CreatedAt.Format("2006-01-02 15:04"),
		skills,
	}
	for _, q := range questions {
		row = append(row, app.Responses[q.ID])
	}
	return row
}
