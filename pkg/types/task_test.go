// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestTaskStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskRunning, false},
		{TaskCompleted, true},
		{TaskError, true},
		{TaskNotFound, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
