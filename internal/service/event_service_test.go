package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/absence-tracker-api/internal/dto"
	"github.com/noah-isme/absence-tracker-api/internal/models"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
)

type eventRepoStub struct {
	stored  models.EventTable
	saves   int
	saveErr error
}

func (r *eventRepoStub) Load(ctx context.Context) (models.EventTable, error) {
	return r.stored, nil
}

func (r *eventRepoStub) Save(ctx context.Context, table models.EventTable) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.stored = table
	return nil
}

func newTestEventService(repo *eventRepoStub, options EventServiceOptions) (EventService, *publisherStub) {
	publisher := &publisherStub{}
	return NewEventService(repo, validator.New(), publisher, options, testLogger()), publisher
}

func groupRequest() dto.EventCreateRequest {
	return dto.EventCreateRequest{
		EventName:   "Смотр строя",
		EventLevel:  models.EventLevelCity,
		EventType:   models.EventTypeGroup,
		EventResult: models.EventResultWinner,
		Classes: []dto.EventGroupClassRequest{
			{ClassLabel: "5А", Participants: []string{"Анна", " ", "Борис"}},
			{ClassLabel: "6В", Participants: []string{"Вера"}},
		},
	}
}

func TestEventServiceSubmitIndividual(t *testing.T) {
	repo := &eventRepoStub{}
	svc, publisher := newTestEventService(repo, EventServiceOptions{SkipBlank: true})

	resp, err := svc.Submit(context.Background(), dto.EventCreateRequest{
		EventName:    "<i>Олимпиада</i>",
		EventLevel:   models.EventLevelOblast,
		EventType:    models.EventTypeIndividual,
		EventResult:  models.EventResultParticipant,
		Participants: []string{"Иванов Иван"},
		ClassLabel:   "11Б",
	})
	require.NoError(t, err)
	require.True(t, resp.Persisted)
	require.Equal(t, 1, resp.TableSize)
	require.Zero(t, resp.Skipped)
	require.Equal(t, "Олимпиада", resp.Records[0].EventName)
	require.Equal(t, repo.stored, svc.Snapshot())
	require.Equal(t, "event.recorded", publisher.published[0].kind)
}

func TestEventServiceSubmitGroupSkipsBlankNames(t *testing.T) {
	repo := &eventRepoStub{}
	svc, _ := newTestEventService(repo, EventServiceOptions{SkipBlank: true})

	resp, err := svc.Submit(context.Background(), groupRequest())
	require.NoError(t, err)
	require.Len(t, resp.Records, 3)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, 1, repo.saves)
	require.Len(t, repo.stored, 3)
}

func TestEventServiceSubmitGroupRejectsBlankNames(t *testing.T) {
	repo := &eventRepoStub{}
	svc, _ := newTestEventService(repo, EventServiceOptions{SkipBlank: false})

	_, err := svc.Submit(context.Background(), groupRequest())
	require.ErrorIs(t, err, ErrBlankParticipant)
	require.Zero(t, repo.saves)
	require.Empty(t, svc.Snapshot())
}

func TestEventServiceStoragePolicies(t *testing.T) {
	closedRepo := &eventRepoStub{saveErr: errDiskFull}
	closed, publisher := newTestEventService(closedRepo, EventServiceOptions{SkipBlank: true})
	_, err := closed.Submit(context.Background(), groupRequest())
	require.ErrorIs(t, err, ErrStorage)
	require.Empty(t, closed.Snapshot())
	require.Empty(t, publisher.published)

	openRepo := &eventRepoStub{saveErr: errDiskFull}
	open, _ := newTestEventService(openRepo, EventServiceOptions{Policy: FailOpen, SkipBlank: true})
	resp, err := open.Submit(context.Background(), groupRequest())
	require.NoError(t, err)
	require.False(t, resp.Persisted)
	require.NotEmpty(t, resp.Warning)
	require.Len(t, open.Snapshot(), 3)
}

func TestEventServiceReports(t *testing.T) {
	repo := &eventRepoStub{stored: models.EventTable{
		{EventName: "Кросс", EventLevel: models.EventLevelSchool, EventType: models.EventTypeGroup, EventResult: models.EventResultParticipant, ParticipantName: "Анна", ClassLabel: "5А"},
		{EventName: "Кросс", EventLevel: models.EventLevelSchool, EventType: models.EventTypeGroup, EventResult: models.EventResultParticipant, ParticipantName: "Борис", ClassLabel: "5А"},
		{EventName: "Олимпиада", EventLevel: models.EventLevelCity, EventType: models.EventTypeIndividual, EventResult: models.EventResultWinner, ParticipantName: "Анна", ClassLabel: "5А"},
		{EventName: "Олимпиада", EventLevel: models.EventLevelCity, EventType: models.EventTypeIndividual, EventResult: models.EventResultWinner, ParticipantName: "Вера", ClassLabel: "10Б"},
	}}
	svc, _ := newTestEventService(repo, EventServiceOptions{})
	require.NoError(t, svc.Load(context.Background()))

	require.Equal(t, []string{"10Б", "5А"}, svc.Classes(context.Background()))

	report, err := svc.ClassReport(context.Background(), "5А")
	require.NoError(t, err)
	require.False(t, report.Empty)
	require.Equal(t, []dto.ResultCountResponse{
		{Result: models.EventResultParticipant, Count: 2},
		{Result: models.EventResultWinner, Count: 1},
	}, report.Results)
	require.Len(t, report.Events, 2)
	require.Equal(t, []string{"Анна", "Борис"}, report.Events[0].Participants)

	none, err := svc.ClassReport(context.Background(), "1А")
	require.NoError(t, err)
	require.True(t, none.Empty)

	history, err := svc.ParticipantHistory(context.Background(), " Анна ")
	require.NoError(t, err)
	require.Equal(t, "Анна", history.ParticipantName)
	require.Len(t, history.Records, 2)

	_, err = svc.ClassReport(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidQuery)
	_, err = svc.ParticipantHistory(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestEventServiceOptions(t *testing.T) {
	svc, _ := newTestEventService(&eventRepoStub{}, EventServiceOptions{})
	options := svc.Options(context.Background())
	require.Len(t, options.Levels, 4)
	require.Len(t, options.Types, 2)
	require.Len(t, options.Results, 11)
	require.Len(t, options.Classes, 33)
	require.Equal(t, "1А", options.Classes[0])
}

func TestEventServiceParticipantNameLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events_data.xlsx")
	svc := NewEventService(repository.NewEventXLSXRepository(path), validator.New(), nil, EventServiceOptions{SkipBlank: true}, testLogger())
	require.NoError(t, svc.Load(context.Background()))

	longest := strings.Repeat("я", 255)
	_, err := svc.Submit(context.Background(), dto.EventCreateRequest{
		EventName:    "Олимпиада по истории",
		EventLevel:   models.EventLevelSchool,
		EventType:    models.EventTypeIndividual,
		EventResult:  models.EventResultLaureate,
		Participants: []string{longest},
		ClassLabel:   "8А",
	})
	require.NoError(t, err)

	var validationErrors validator.ValidationErrors
	tooLong := longest + "я"
	_, err = svc.Submit(context.Background(), dto.EventCreateRequest{
		EventName:    "Олимпиада по истории",
		EventLevel:   models.EventLevelSchool,
		EventType:    models.EventTypeIndividual,
		EventResult:  models.EventResultLaureate,
		Participants: []string{tooLong},
		ClassLabel:   "8А",
	})
	require.ErrorAs(t, err, &validationErrors)

	group := groupRequest()
	group.Classes[1].Participants = []string{tooLong}
	_, err = svc.Submit(context.Background(), group)
	require.ErrorAs(t, err, &validationErrors)

	reloaded, err := repository.NewEventXLSXRepository(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, svc.Snapshot(), reloaded)
	require.Len(t, reloaded, 1)
	require.Equal(t, longest, reloaded[0].ParticipantName)
}
