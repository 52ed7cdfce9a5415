package server_test

import (
	"testing"

	"tenant-bootstrapper/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		addr    string
		wantErr bool
	}{
		{"Default", "8080", ":8080", false},
		{"Custom", "9000", ":9000", false},
		{"Empty", "", ":", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.addr, c.Addr())
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}
