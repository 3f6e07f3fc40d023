package config

// DB holds the database configuration settings.
type DB struct {
	Extras     string `mapstructure:"extras" toml:"extras"`
	Host       string `mapstructure:"host" toml:"host"`
	Port       int    `mapstructure:"port" toml:"port"`
	User       string `mapstructure:"user" toml:"user"`
	Password   string `mapstructure:"password" toml:"password"`
	Name       string `mapstructure:"name" toml:"name"`
	GormEngine string `mapstructure:"gormEngine" toml:"gormEngine"` // mysql, postgres or sqlite
}
