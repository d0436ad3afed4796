package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		APIToken:              "test-token-123",
		ClaudeAPIKey:          "sk-test-key",
		ClaudeModel:           "claude-sonnet-4-20250514",
		GenTimeoutSeconds:     30,
		ResourceLimit:         5,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.GenTimeoutSeconds != 30 {
		t.Errorf("GenTimeoutSeconds = %d, want 30", c.GenTimeoutSeconds)
	}
	if c.ResourceLimit != 5 {
		t.Errorf("ResourceLimit = %d, want 5", c.ResourceLimit)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-api-token", "tok-override",
		"-database-url", "postgres://localhost/sage",
		"-redis-url", "redis://localhost:6379/0",
		"-claude-api-key", "sk-override",
		"-claude-model", "claude-opus-4-20250514",
		"-gen-timeout-seconds", "15",
		"-resource-limit", "10",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.APIToken != "tok-override" {
		t.Errorf("APIToken = %q, want %q", c.APIToken, "tok-override")
	}
	if c.DatabaseURL != "postgres://localhost/sage" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", c.RedisURL)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
	if c.GenTimeoutSeconds != 15 {
		t.Errorf("GenTimeoutSeconds = %d, want 15", c.GenTimeoutSeconds)
	}
	if c.ResourceLimit != 10 {
		t.Errorf("ResourceLimit = %d, want 10", c.ResourceLimit)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "defaults are valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name: "minimum valid values",
			cfg: Config{
				DrainSeconds: 1, ShutdownBudgetSeconds: 2, APIPort: 1,
				APIToken: "t", ClaudeAPIKey: "k", ClaudeModel: "m",
				GenTimeoutSeconds: 1, ResourceLimit: 1,
			},
			wantErr: false,
		},
		{
			name: "maximum valid values",
			cfg: Config{
				DrainSeconds: 299, ShutdownBudgetSeconds: 300, APIPort: 65535,
				APIToken: "t", ClaudeAPIKey: "k", ClaudeModel: "m",
				GenTimeoutSeconds: 300, ResourceLimit: 50,
			},
			wantErr: false,
		},
		// DrainSeconds boundaries
		{
			name:      "drain zero",
			cfg:       Config{DrainSeconds: 0, ShutdownBudgetSeconds: 90, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain negative",
			cfg:       Config{DrainSeconds: -1, ShutdownBudgetSeconds: 90, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       Config{DrainSeconds: 301, ShutdownBudgetSeconds: 302, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		// ShutdownBudgetSeconds boundaries
		{
			name:      "budget zero",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 0, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget above max",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 301, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		// Cross-field: budget vs drain
		{
			name:      "budget equals drain",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 60, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "budget less than drain",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 30, APIPort: 8080},
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		// APIPort boundaries
		{
			name:      "port zero",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 90, APIPort: 0},
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       Config{DrainSeconds: 60, ShutdownBudgetSeconds: 90, APIPort: 65536},
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		// Required string fields
		{
			name: "empty api token",
			cfg: func() Config {
				c := validBase()
				c.APIToken = ""
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"API_TOKEN"},
		},
		{
			name: "empty claude api key",
			cfg: func() Config {
				c := validBase()
				c.ClaudeAPIKey = ""
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_API_KEY"},
		},
		{
			name: "empty claude model",
			cfg: func() Config {
				c := validBase()
				c.ClaudeModel = ""
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		// Generation timeout and resource limit
		{
			name: "gen timeout zero",
			cfg: func() Config {
				c := validBase()
				c.GenTimeoutSeconds = 0
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"GEN_TIMEOUT_SECONDS"},
		},
		{
			name: "gen timeout above max",
			cfg: func() Config {
				c := validBase()
				c.GenTimeoutSeconds = 301
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"GEN_TIMEOUT_SECONDS"},
		},
		{
			name: "resource limit zero",
			cfg: func() Config {
				c := validBase()
				c.ResourceLimit = 0
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"RESOURCE_LIMIT"},
		},
		{
			name: "resource limit above max",
			cfg: func() Config {
				c := validBase()
				c.ResourceLimit = 51
				return c
			}(),
			wantErr:   true,
			errSubstr: []string{"RESOURCE_LIMIT"},
		},
		// Optional fields may be empty
		{
			name:    "empty database and redis urls are fine",
			cfg:     validBase(),
			wantErr: false,
		},
		// Error accumulation: all fields invalid
		{
			name:      "all fields invalid",
			cfg:       Config{DrainSeconds: 0, ShutdownBudgetSeconds: 0, APIPort: 0},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "API_TOKEN", "CLAUDE_API_KEY", "CLAUDE_MODEL", "GEN_TIMEOUT_SECONDS", "RESOURCE_LIMIT"},
		},
		// Extreme values
		{
			name:      "extreme negative values",
			cfg:       Config{DrainSeconds: math.MinInt32, ShutdownBudgetSeconds: math.MinInt32, APIPort: math.MinInt32},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}
}

func FuzzValidate(f *testing.F) {
	// Seeds: defaults, boundaries, extremes
	seeds := []struct {
		drain, budget, port, genTimeout, limit int
		token, key, model                      string
	}{
		{60, 90, 8080, 30, 5, "tok", "sk-test", "claude-sonnet"},
		{1, 2, 1, 1, 1, "t", "k", "m"},
		{299, 300, 65535, 300, 50, "t", "k", "m"},
		{0, 0, 0, 0, 0, "", "", ""},
		{-1, -1, -1, -1, -1, "", "", ""},
		{300, 300, 65535, 30, 5, "t", "k", "m"},
		{301, 302, 65536, 301, 51, "", "", ""},
		{150, 100, 8080, 30, 5, "t", "k", "m"},
		{math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, "", "", ""},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, "", "", ""},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.genTimeout, s.limit, s.token, s.key, s.model)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port, genTimeout, limit int, token, key, model string) {
		c := Config{
			DrainSeconds:          drain,
			ShutdownBudgetSeconds: budget,
			APIPort:               port,
			APIToken:              token,
			ClaudeAPIKey:          key,
			ClaudeModel:           model,
			GenTimeoutSeconds:     genTimeout,
			ResourceLimit:         limit,
		}
		err := c.Validate()

		drainOK := drain >= 1 && drain <= 300
		budgetOK := budget >= 1 && budget <= 300
		portOK := port >= 1 && port <= 65535
		crossOK := budget > drain
		tokenOK := token != ""
		keyOK := key != ""
		modelOK := model != ""
		genOK := genTimeout >= 1 && genTimeout <= 300
		limitOK := limit >= 1 && limit <= 50

		allValid := drainOK && budgetOK && portOK && crossOK && tokenOK && keyOK && modelOK && genOK && limitOK

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}
