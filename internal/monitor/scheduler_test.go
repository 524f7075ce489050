package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarySpec(t *testing.T) {
	tests := []struct {
		at      string
		want    string
		wantErr bool
	}{
		{at: "09:00", want: "0 9 * * *"},
		{at: "23:59", want: "59 23 * * *"},
		{at: "0:05", want: "5 0 * * *"},
		{at: "24:00", wantErr: true},
		{at: "09:60", wantErr: true},
		{at: "nine", wantErr: true},
		{at: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			spec, err := summarySpec(tt.at)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	store := newMockStore()
	emitter := &mockEmitter{}
	m := newTestMonitor(store, emitter, t0)

	s := NewScheduler(DefaultConfig(), m, nil)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestScheduler_RejectsBadSummaryTime(t *testing.T) {
	store := newMockStore()
	emitter := &mockEmitter{}
	m := newTestMonitor(store, emitter, t0)

	config := DefaultConfig()
	config.SummaryTime = "25:00"
	s := NewScheduler(config, m, &SummaryJob{})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary hour")
}
