package models

// Column headers of the absence table, kept identical to the spreadsheets
// the school already maintains.
const (
	AbsenceColumnDate      = "Дата"
	AbsenceColumnClass     = "Класс"
	AbsenceColumnTotal     = "Всего отсутствует"
	AbsenceColumnSick      = "По болезни (количество)"
	AbsenceColumnExcused   = "По уважительной причине (количество)"
	AbsenceColumnUnexcused = "По неуважительной причине (количество)"
)

// AbsenceColumns lists the absence table header in storage order.
var AbsenceColumns = []string{
	AbsenceColumnDate,
	AbsenceColumnClass,
	AbsenceColumnTotal,
	AbsenceColumnSick,
	AbsenceColumnExcused,
	AbsenceColumnUnexcused,
}

// AbsenceRecord is one per-class daily absence submission.
type AbsenceRecord struct {
	Date           Date   `json:"date" csv:"Дата"`
	ClassLabel     string `json:"class_label" csv:"Класс"`
	TotalAbsent    int    `json:"total_absent" csv:"Всего отсутствует"`
	SickCount      int    `json:"sick_count" csv:"По болезни (количество)"`
	ExcusedCount   int    `json:"excused_count" csv:"По уважительной причине (количество)"`
	UnexcusedCount int    `json:"unexcused_count" csv:"По неуважительной причине (количество)"`
}

// AbsenceTable is the ordered collection of absence records.
type AbsenceTable []AbsenceRecord
