package config

import (
	"strings"
	"testing"

	"github.com/kiosk404/nubabel/internal/hivemind/options"
)

func TestCreateConfigFromOptionsAuth(t *testing.T) {
	tests := []struct {
		name      string
		enabled   bool
		flagToken string
		envToken  string
		wantToken string
		wantErr   string
	}{
		{name: "disabled without token"},
		{name: "disabled ignores env", envToken: "from-env"},
		{name: "flag token", enabled: true, flagToken: "from-flag", envToken: "from-env", wantToken: "from-flag"},
		{name: "env token", enabled: true, envToken: "from-env", wantToken: "from-env"},
		{name: "enabled without token", enabled: true, wantErr: TokenEnv},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TokenEnv, tt.envToken)
			opts := options.NewOptions()
			opts.AuthOptions.Enabled = tt.enabled
			opts.AuthOptions.Token = tt.flagToken

			cfg, err := CreateConfigFromOptions(opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateConfigFromOptions: %v", err)
			}
			if cfg.AuthOptions.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", cfg.AuthOptions.Token, tt.wantToken)
			}
		})
	}
}
