package mongo

import (
	"context"
	"testing"
	"time"
)

func TestConnect_RequiresURIAndDatabase(t *testing.T) {
	for name, cfg := range map[string]Config{
		"no uri":      {Database: "moviehub"},
		"no database": {URI: "mongodb://localhost:27017"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Connect(context.Background(), cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://localhost:27017", Database: "moviehub", MaxPoolSize: 20}.clientOptions(3 * time.Second)

	if opts.AppName == nil || *opts.AppName != defaultAppName {
		t.Errorf("expected default app name, got %v", opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 20 {
		t.Errorf("expected max pool size 20, got %v", opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != 3*time.Second {
		t.Errorf("expected server selection timeout 3s, got %v", opts.ServerSelectionTimeout)
	}

	named := Config{URI: "mongodb://localhost:27017", AppName: "bff-canary"}.clientOptions(time.Second)
	if *named.AppName != "bff-canary" || named.MaxPoolSize != nil {
		t.Errorf("unexpected options %+v", named)
	}
}
