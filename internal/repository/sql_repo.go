package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

const sqlBatchSize = 200

type absenceRow struct {
	ID             uint           `gorm:"primaryKey"`
	Position       int            `gorm:"not null;index"`
	Date           datatypes.Date `gorm:"not null;index"`
	ClassLabel     string         `gorm:"size:16;not null;index"`
	TotalAbsent    int            `gorm:"not null"`
	SickCount      int            `gorm:"not null"`
	ExcusedCount   int            `gorm:"not null"`
	UnexcusedCount int            `gorm:"not null"`
}

func (absenceRow) TableName() string { return "absence_records" }

type eventRow struct {
	ID              uint   `gorm:"primaryKey"`
	Position        int    `gorm:"not null;index"`
	EventName       string `gorm:"size:255;not null"`
	EventLevel      string `gorm:"size:32;not null"`
	EventType       string `gorm:"size:32;not null"`
	EventResult     string `gorm:"size:64;not null"`
	ParticipantName string `gorm:"size:255;not null;index"`
	ClassLabel      string `gorm:"size:16;not null;index"`
}

func (eventRow) TableName() string { return "event_records" }

// MigrateSQLStore creates the tables backing the SQL record stores.
func MigrateSQLStore(db *gorm.DB) error {
	return db.AutoMigrate(&absenceRow{}, &eventRow{})
}

type absenceSQLRepository struct {
	db *gorm.DB
}

// NewAbsenceSQLRepository constructs an absence table store backed by GORM.
func NewAbsenceSQLRepository(db *gorm.DB) AbsenceRepository {
	return &absenceSQLRepository{db: db}
}

func (r *absenceSQLRepository) Load(ctx context.Context) (models.AbsenceTable, error) {
	var rows []absenceRow
	if err := r.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	table := make(models.AbsenceTable, 0, len(rows))
	for _, row := range rows {
		table = append(table, models.AbsenceRecord{
			Date:           models.DateOf(time.Time(row.Date)),
			ClassLabel:     row.ClassLabel,
			TotalAbsent:    row.TotalAbsent,
			SickCount:      row.SickCount,
			ExcusedCount:   row.ExcusedCount,
			UnexcusedCount: row.UnexcusedCount,
		})
	}
	return table, nil
}

func (r *absenceSQLRepository) Save(ctx context.Context, table models.AbsenceTable) error {
	rows := make([]absenceRow, 0, len(table))
	for i, record := range table {
		rows = append(rows, absenceRow{
			Position:       i,
			Date:           datatypes.Date(record.Date.Time),
			ClassLabel:     record.ClassLabel,
			TotalAbsent:    record.TotalAbsent,
			SickCount:      record.SickCount,
			ExcusedCount:   record.ExcusedCount,
			UnexcusedCount: record.UnexcusedCount,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&absenceRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, sqlBatchSize).Error
	})
}

type eventSQLRepository struct {
	db *gorm.DB
}

// NewEventSQLRepository constructs an event table store backed by GORM.
func NewEventSQLRepository(db *gorm.DB) EventRepository {
	return &eventSQLRepository{db: db}
}

func (r *eventSQLRepository) Load(ctx context.Context) (models.EventTable, error) {
	var rows []eventRow
	if err := r.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	table := make(models.EventTable, 0, len(rows))
	for _, row := range rows {
		table = append(table, models.EventRecord{
			EventName:       row.EventName,
			EventLevel:      models.EventLevel(row.EventLevel),
			EventType:       models.EventType(row.EventType),
			EventResult:     models.EventResult(row.EventResult),
			ParticipantName: row.ParticipantName,
			ClassLabel:      row.ClassLabel,
		})
	}
	return table, nil
}

func (r *eventSQLRepository) Save(ctx context.Context, table models.EventTable) error {
	rows := make([]eventRow, 0, len(table))
	for i, record := range table {
		rows = append(rows, eventRow{
			Position:        i,
			EventName:       record.EventName,
			EventLevel:      string(record.EventLevel),
			EventType:       string(record.EventType),
			EventResult:     string(record.EventResult),
			ParticipantName: record.ParticipantName,
			ClassLabel:      record.ClassLabel,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&eventRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, sqlBatchSize).Error
	})
}
