package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		opt  Option
		want string
	}{
		{
			name: "defaults",
			opt:  Option{},
			want: "postgres://localhost:5432?sslmode=disable",
		},
		{
			name: "full",
			opt: Option{
				Host:     "db",
				Port:     6432,
				User:     "trader",
				Password: "p@ss",
				Database: "ibgw",
				SSLMode:  "require",
				Params:   map[string]string{"application_name": "ibgw", "": "skip"},
			},
			want: "postgres://trader:p%40ss@db:6432/ibgw?application_name=ibgw&sslmode=require",
		},
		{
			name: "user without password",
			opt:  Option{User: "trader", Database: "ibgw"},
			want: "postgres://trader@localhost:5432/ibgw?sslmode=disable",
		},
		{
			name: "conn string wins",
			opt:  Option{ConnString: "host=db user=x", Host: "ignored"},
			want: "host=db user=x",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.opt.DSN())
		})
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.DB())
	assert.NoError(t, c.Migrate(struct{}{}))
	assert.NoError(t, c.Close())
}
