package versioncheck

import (
	"errors"
	"testing"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
)

func TestVersionCheck(t *testing.T) {
	tests := []struct {
		requirement string
		version     string
		ok          bool
	}{
		{"^1.2.0", "1.4.3", true},
		{"^1.2.0", "2.0.0", false},
		{"~1.2.0", "1.2.9", true},
		{"~1.2.0", "1.3.0", false},
		{">=1.0.0", "3.1.4", true},
		{"1.0.0", "1.0.1", false},
		{"^1.2.0", "not-a-version", false},
	}
	for _, tt := range tests {
		t.Run(tt.requirement+" "+tt.version, func(t *testing.T) {
			streams, _, _, _ := util.NewTestIOStreams()
			o := &Options{IOStreams: streams}
			_ = o.Complete([]string{tt.requirement, tt.version})
			err := o.Run()
			if tt.ok && err != nil {
				t.Errorf("err = %v", err)
			}
			if !tt.ok && !errors.Is(err, util.ErrExit) {
				t.Errorf("err = %v, want ErrExit", err)
			}
		})
	}
}
