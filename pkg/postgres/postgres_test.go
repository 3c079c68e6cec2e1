package postgres

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDB_DSN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cfg      DB
		password string
	}{
		{
			name:     "plain",
			cfg:      DB{Host: "localhost", Port: 5432, Username: "postgres", Password: "postgres", NameDB: "library", SSLMode: "disable"},
			password: "postgres",
		},
		{
			name:     "reserved characters",
			cfg:      DB{Host: "db", Port: 6432, Username: "desk", Password: "p@ss/w:rd?#%", NameDB: "library", SSLMode: "require"},
			password: "p@ss/w:rd?#%",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u, err := url.Parse(tt.cfg.DSN())
			require.NoError(t, err)
			require.Equal(t, "postgres", u.Scheme)
			require.Equal(t, tt.cfg.Username, u.User.Username())
			pass, ok := u.User.Password()
			require.True(t, ok)
			require.Equal(t, tt.password, pass)
			require.Equal(t, tt.cfg.Host, u.Hostname())
			require.Equal(t, "/"+tt.cfg.NameDB, u.Path)
			require.Equal(t, tt.cfg.SSLMode, u.Query().Get("sslmode"))
		})
	}
}
