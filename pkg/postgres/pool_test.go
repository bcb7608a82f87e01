package postgres

import (
	"testing"

	"github.com/vogiaan1904/thequeue/config"
)

func TestBuildConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "default sslmode",
			cfg:  config.PostgresConfig{Host: "localhost", Port: 5432, Name: "thequeue", User: "dj", Password: "pw"},
			want: "postgres://dj:pw@localhost:5432/thequeue?sslmode=prefer",
		},
		{
			name: "escaped password",
			cfg:  config.PostgresConfig{Host: "db", Port: 5433, Name: "q", User: "dj", Password: "p@ss/w:rd", SSLMode: "require"},
			want: "postgres://dj:p%40ss%2Fw%3Ard@db:5433/q?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildConnString(tt.cfg); got != tt.want {
				t.Errorf("BuildConnString() = %q, want %q", got, tt.want)
			}
		})
	}
}
