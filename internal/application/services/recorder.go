package services

import "github.com/taskmate/core/internal/ports"

type nopRecorder struct{}

func (nopRecorder) TaskCreated()            {}
func (nopRecorder) TaskCompleted()          {}
func (nopRecorder) AssistantRequest(string) {}

func metricsOrNop(m ports.MetricsRecorder) ports.MetricsRecorder {
	if m == nil {
		return nopRecorder{}
	}
	return m
}
