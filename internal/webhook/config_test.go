package webhook

import (
	"strings"
	"testing"

	"github.com/mattjoyce/consolidate-bridge/internal/config"
)

func TestFromGlobalConfig(t *testing.T) {
	wc := &config.WebhooksConfig{
		Listen: ":8091",
		Endpoints: []config.WebhookEndpoint{
			{Path: "/a", SecretRef: "a_secret", MaxBodySize: "2MB"},
			{Path: "/b", Subscription: "contacts"},
		},
	}

	cfg, err := FromGlobalConfig(wc, map[string]string{"a_secret": testSecret})
	if err != nil {
		t.Fatalf("FromGlobalConfig() error = %v", err)
	}

	if cfg.Listen != ":8091" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Endpoints[0].Secret != testSecret {
		t.Error("secret_ref not resolved")
	}
	if cfg.Endpoints[0].MaxBodySize != 2*1024*1024 {
		t.Errorf("MaxBodySize = %d", cfg.Endpoints[0].MaxBodySize)
	}
	if cfg.Endpoints[1].Subscription != "contacts" || cfg.Endpoints[1].Secret != "" {
		t.Errorf("subscription endpoint = %+v", cfg.Endpoints[1])
	}
	if cfg.Endpoints[1].MaxBodySize != DefaultMaxBodySize {
		t.Errorf("default MaxBodySize = %d", cfg.Endpoints[1].MaxBodySize)
	}
}

func TestFromGlobalConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		ep      config.WebhookEndpoint
		wantErr string
	}{
		{name: "unknown ref", ep: config.WebhookEndpoint{Path: "/a", SecretRef: "nope"}, wantErr: "not found in tokens"},
		{name: "no secret", ep: config.WebhookEndpoint{Path: "/a"}, wantErr: "no subscription"},
		{name: "bad secret", ep: config.WebhookEndpoint{Path: "/a", Secret: "whsec_%%%"}, wantErr: "base64"},
		{name: "bad size", ep: config.WebhookEndpoint{Path: "/a", Secret: testSecret, MaxBodySize: "lots"}, wantErr: "max_body_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGlobalConfig(&config.WebhooksConfig{Endpoints: []config.WebhookEndpoint{tt.ep}}, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if _, err := FromGlobalConfig(nil, nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestParseMaxBodySize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "", want: DefaultMaxBodySize},
		{in: "2048", want: 2048},
		{in: "512KB", want: 512 * 1024},
		{in: "1mb", want: 1024 * 1024},
		{in: "1GB", want: 1024 * 1024 * 1024},
		{in: "0", wantErr: true},
		{in: "-1KB", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "9223372036854775807GB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMaxBodySize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMaxBodySize(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMaxBodySize(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseMaxBodySize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
