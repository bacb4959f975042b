package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

type csvFile[T any] struct {
	path string
}

func (c csvFile[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer file.Close()

	records := []T{}
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) || errors.Is(err, io.EOF) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return records, nil
}

func (c csvFile[T]) save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}

	return writeFileAtomic(c.path, func(f *os.File) error {
		if err := gocsv.MarshalFile(&records, f); err != nil {
			return fmt.Errorf("encode %s: %w", c.path, err)
		}
		return nil
	})
}

type absenceCSVRepository struct {
	file csvFile[models.AbsenceRecord]
}

// NewAbsenceCSVRepository stores the absence table as a CSV file with the localized header.
func NewAbsenceCSVRepository(path string) AbsenceRepository {
	return &absenceCSVRepository{file: csvFile[models.AbsenceRecord]{path: path}}
}

func (r *absenceCSVRepository) Load(ctx context.Context) (models.AbsenceTable, error) {
	records, err := r.file.load(ctx)
	return models.AbsenceTable(records), err
}

func (r *absenceCSVRepository) Save(ctx context.Context, table models.AbsenceTable) error {
	return r.file.save(ctx, table)
}

type eventCSVRepository struct {
	file csvFile[models.EventRecord]
}

// NewEventCSVRepository stores the event table as a CSV file with the localized header.
func NewEventCSVRepository(path string) EventRepository {
	return &eventCSVRepository{file: csvFile[models.EventRecord]{path: path}}
}

func (r *eventCSVRepository) Load(ctx context.Context) (models.EventTable, error) {
	records, err := r.file.load(ctx)
	return models.EventTable(records), err
}

func (r *eventCSVRepository) Save(ctx context.Context, table models.EventTable) error {
	return r.file.save(ctx, table)
}
