package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

func testSession() *lesson.Session {
	opts := []string{"A) one", "B) two", "C) three", "D) four"}
	return &lesson.Session{
		ID:    "abc-123",
		Topic: "Renal physiology",
		Slides: []lesson.Slide{
			{Title: "Nephron", Content: "• Glomerulus", Narration: "Filtration starts here."},
			{Title: "Loop of Henle", Content: "• Countercurrent", Narration: "Concentrating urine."},
			{Title: "Hormones", Content: "• ADH", Narration: "Water balance."},
			{Title: "Summary", Content: "• Review", Narration: "Wrap up."},
		},
		QuizQuestions: []lesson.QuizQuestion{
			{Level: 1, Question: "Where does filtration occur?", Options: opts, CorrectAnswer: "A", Explanation: "Glomerulus."},
			{Level: 2, Question: "Q2", Options: opts, CorrectAnswer: "B"},
			{Level: 3, Question: "Q3", Options: opts, CorrectAnswer: "C"},
			{Level: 4, Question: "Q4", Options: opts, CorrectAnswer: "D", Explanation: "Integration."},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testSession()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != SlidesSheet || got[1] != QuizSheet {
		t.Fatalf("sheets = %v, want [Slides Quiz]", got)
	}

	slides, err := f.GetRows(SlidesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 5 {
		t.Fatalf("slide rows = %d, want header + 4", len(slides))
	}
	if slides[1][1] != "Nephron" || slides[1][3] != "Filtration starts here." {
		t.Errorf("first slide row = %v", slides[1])
	}

	quiz, err := f.GetRows(QuizSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(quiz) != 5 {
		t.Fatalf("quiz rows = %d, want header + 4", len(quiz))
	}
	tests := []struct {
		row        int
		levelName  string
		answer     string
		optionA    string
		explanation string
	}{
		{1, "Beginner", "A", "A) one", "Glomerulus."},
		{4, "Expert", "D", "A) one", "Integration."},
	}
	for _, tt := range tests {
		r := quiz[tt.row]
		if r[1] != tt.levelName || r[3] != tt.optionA || r[7] != tt.answer || r[8] != tt.explanation {
			t.Errorf("quiz row %d = %v", tt.row, r)
		}
	}
}

func TestWorkbook_NilSession(t *testing.T) {
	if _, err := Workbook(nil); err == nil {
		t.Error("Workbook(nil) should fail")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("abc"); got != "medlearn_abc.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}
