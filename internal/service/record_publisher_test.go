package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNATSRecordPublisherWithoutConnection(t *testing.T) {
	publisher := NewNATSRecordPublisher(nil, "school:records.", testLogger())

	require.NoError(t, publisher.Publish(context.Background(), "absence.recorded", map[string]int{"total_absent": 3}))

	nats, ok := publisher.(*natsRecordPublisher)
	require.True(t, ok)
	require.Equal(t, "school.records", nats.subjectBase)
}
