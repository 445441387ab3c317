// Package export renders a stored session as an XLSX workbook, including
// the quiz answer key. It is only reachable when export is enabled.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

// Sheet names in the generated workbook.
const (
	SlidesSheet = "Slides"
	QuizSheet   = "Quiz"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	slideHeader = []any{"Slide", "Title", "Content", "Narration"}
	quizHeader  = []any{"Level", "Level name", "Question", "Option A", "Option B", "Option C", "Option D", "Correct answer", "Explanation"}
)

// FileName returns the download name for a session workbook.
func FileName(sessionID string) string {
	return fmt.Sprintf("medlearn_%s.xlsx", sessionID)
}

// Workbook builds the workbook for sess. The caller must Close it.
func Workbook(sess *lesson.Session) (*excelize.File, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SlidesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming slides sheet: %w", err)
	}
	if _, err := f.NewSheet(QuizSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating quiz sheet: %w", err)
	}

	if err := writeSlides(f, sess.Slides); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeQuiz(f, sess.QuizQuestions); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   sess.Topic,
		Creator: "MedLearn AI",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("setting properties: %w", err)
	}
	return f, nil
}

// Write renders sess as XLSX to w.
func Write(w io.Writer, sess *lesson.Session) error {
	f, err := Workbook(sess)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSlides(f *excelize.File, slides []lesson.Slide) error {
	if err := writeHeader(f, SlidesSheet, slideHeader); err != nil {
		return err
	}
	for i, s := range slides {
		row := []any{i + 1, s.Title, s.Content, s.Narration}
		if err := setRow(f, SlidesSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SlidesSheet, "B", "D", 50)
}

func writeQuiz(f *excelize.File, questions []lesson.QuizQuestion) error {
	if err := writeHeader(f, QuizSheet, quizHeader); err != nil {
		return err
	}
	for i, q := range questions {
		name := ""
		if lvl, ok := lesson.LevelInfo(q.Level); ok {
			name = lvl.Name
		}
		row := []any{q.Level, name, q.Question}
		for j := range 4 {
			opt := ""
			if j < len(q.Options) {
				opt = q.Options[j]
			}
			row = append(row, opt)
		}
		row = append(row, q.CorrectAnswer, q.Explanation)
		if err := setRow(f, QuizSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(QuizSheet, "C", "C", 60)
}

func writeHeader(f *excelize.File, sheet string, header []any) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
