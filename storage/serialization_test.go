package storage

import (
	"testing"
	"time"

	"github.com/poiesic/studyforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTask(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	task := core.NewTask("t-1", "https://youtu.be/abcdefghijk", "Lecture", now)
	require.NoError(t, task.Advance(core.StepDownload, core.StepProcessing, "", now))
	require.NoError(t, task.Advance(core.StepDownload, core.StepError, "aria2c failed", now))

	data, err := EncodeTask(task)
	require.NoError(t, err)

	got, err := DecodeTask(data)
	require.NoError(t, err)
	assert.Equal(t, task, got)
	require.NotNil(t, got.Error)
	assert.Equal(t, 1, got.Error.Step)
}

func TestDecodeTask_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"empty id", `{"id": "", "steps": []}`},
		{"wrong step count", `{"id": "x", "steps": [{"name": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTask([]byte(tt.data))
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
