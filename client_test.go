package discovery

import (
	"testing"
	"time"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379")(cfg)
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.addrs)
	}

	WithPassword("secret")(cfg)
	if cfg.password != "secret" {
		t.Errorf("password = %q", cfg.password)
	}

	WithCallTimeout(500 * time.Millisecond)(cfg)
	if cfg.callTimeout != 500*time.Millisecond {
		t.Errorf("call timeout = %v", cfg.callTimeout)
	}

	WithTrendingWeights(1, 3, 5, 8)(cfg)
	if cfg.weights == nil || cfg.weights.Share != 8 {
		t.Errorf("weights = %+v", cfg.weights)
	}
}

func TestWithLogger_NilKeepsDefault(t *testing.T) {
	cfg := &clientConfig{}
	WithLogger(nil)(cfg)
	if cfg.log != nil {
		t.Error("nil logger must not overwrite the default")
	}
}
