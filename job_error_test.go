package mcquad

import (
	"errors"
	"fmt"
	"testing"
)

func TestJobError_Error(t *testing.T) {
	je := &JobError{Job: "disk", Index: 3, Err: errors.New("something went wrong")}

	expected := `job "disk" (#3) failed: something went wrong`
	if got := je.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestJobError_Unwrap(t *testing.T) {
	err := errors.New("original error")
	je := &JobError{Job: "disk", Err: err}

	if got := je.Unwrap(); got != err {
		t.Errorf("Unwrap() = %v, want %v", got, err)
	}
}

func TestIsJobError(t *testing.T) {
	je := &JobError{Job: "job", Err: errors.New("err")}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: false,
		},
		{
			name: "JobError",
			err:  je,
			want: true,
		},
		{
			name: "wrapped JobError",
			err:  fmt.Errorf("wrapped: %w", je),
			want: true,
		},
		{
			name: "joined errors containing JobError",
			err:  errors.Join(errors.New("other"), je),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsJobError(tt.err); got != tt.want {
				t.Errorf("IsJobError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobOf(t *testing.T) {
	je := &JobError{Job: "target-job", Err: errors.New("err")}

	tests := []struct {
		name     string
		err      error
		wantName string
		wantOk   bool
	}{
		{
			name:     "nil error",
			err:      nil,
			wantName: "",
			wantOk:   false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard"),
			wantName: "",
			wantOk:   false,
		},
		{
			name:     "JobError",
			err:      je,
			wantName: "target-job",
			wantOk:   true,
		},
		{
			name:     "joined errors containing JobError",
			err:      errors.Join(errors.New("other"), je),
			wantName: "target-job",
			wantOk:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotOk := JobOf(tt.err)
			if gotOk != tt.wantOk {
				t.Errorf("JobOf() ok = %v, want %v", gotOk, tt.wantOk)
			}
			if gotName != tt.wantName {
				t.Errorf("JobOf() name = %q, want %q", gotName, tt.wantName)
			}
		})
	}
}

func TestAllJobErrors(t *testing.T) {
	je1 := &JobError{Job: "j1", Err: errors.New("e1")}
	je2 := &JobError{Job: "j2", Err: errors.New("e2")}
	je3 := &JobError{Job: "j3", Err: errors.New("e3")}

	tests := []struct {
		name string
		err  error
		want []*JobError
	}{
		{
			name: "nil error",
			err:  nil,
			want: nil,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: nil,
		},
		{
			name: "single JobError",
			err:  je1,
			want: []*JobError{je1},
		},
		{
			name: "mixed joined errors",
			err:  errors.Join(errors.New("other"), je1, errors.New("other2"), je2),
			want: []*JobError{je1, je2},
		},
		{
			name: "nested joins",
			err:  errors.Join(errors.Join(je1, je2), je3),
			want: []*JobError{je1, je2, je3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllJobErrors(tt.err)
			if len(got) != len(tt.want) {
				t.Fatalf("AllJobErrors() len = %d, want %d", len(got), len(tt.want))
			}
			for i, g := range got {
				if g != tt.want[i] {
					t.Errorf("AllJobErrors()[%d] = %v, want %v", i, g, tt.want[i])
				}
			}
		})
	}
}
