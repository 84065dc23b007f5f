package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:30", want: "0 30 9 * * *"},
		{in: " 00:00 ", want: "0 0 0 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "7", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleRegistersEntries(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleInterval("audit", 0, time.Second, noop)
	require.Error(t, err)
	_, err = s.ScheduleDaily("audit", "25:00", time.Second, noop)
	require.Error(t, err)

	_, err = s.ScheduleInterval("audit", 90*time.Minute, time.Second, noop)
	require.NoError(t, err)
	_, err = s.ScheduleDaily("audit", "03:15", time.Second, noop)
	require.NoError(t, err)
	require.Equal(t, 2, s.Entries())
}

func TestScheduleIntervalRunsJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())

	var runs atomic.Int32
	_, err := s.ScheduleInterval("tick", 10*time.Millisecond, time.Second, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			runs.Add(1)
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
