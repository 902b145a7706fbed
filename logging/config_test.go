package logging

import "testing"

func TestIsComponentVisible(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		component string
		want      bool
	}{
		{"nil config shows all", nil, "dispatch", true},
		{"empty config shows all", &Config{}, "dispatch", true},
		{"show list includes", &Config{Show: []string{"dispatch", "twitch"}}, "twitch", true},
		{"show list excludes", &Config{Show: []string{"dispatch"}}, "twitch", false},
		{"hide list", &Config{Hide: []string{"metrics"}}, "metrics", false},
		{"hide wins over show", &Config{Show: []string{"metrics"}, Hide: []string{"metrics"}}, "metrics", false},
		{"hidden other component", &Config{Hide: []string{"metrics"}}, "dispatch", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComponentVisible(tt.component, tt.cfg); got != tt.want {
				t.Errorf("IsComponentVisible(%q) = %v, want %v", tt.component, got, tt.want)
			}
		})
	}
}
