package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/uniportal-rbac/internal/config"
)

func TestCreate(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		Host: "db", Port: 3306, User: "rbac", Password: "secret", Name: "portal", Extras: "parseTime=true",
	}}

	assert.Equal(t, "rbac:secret@tcp(db:3306)/portal?parseTime=true", Create(cfg))
	assert.Equal(t, "host=db port=3306 user=rbac password=secret dbname=portal parseTime=true", CreatePostgres(cfg))
	assert.Equal(t, "portal?parseTime=true", CreateSQLite(cfg))

	cfg.DB.Extras = ""
	assert.Equal(t, "portal", CreateSQLite(cfg))
}

func TestDialector(t *testing.T) {
	testCases := []struct {
		engine   string
		expected string
		err      error
	}{
		{engine: "mysql", expected: "mysql"},
		{engine: "postgres", expected: "postgres"},
		{engine: "sqlite", expected: "sqlite"},
		{engine: "oracle", err: config.ErrUnknownEngine},
	}

	for _, tc := range testCases {
		t.Run(tc.engine, func(t *testing.T) {
			d, err := Dialector(&config.Config{DB: config.DB{GormEngine: tc.engine, Name: "portal"}})
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, d.Name())
		})
	}
}
