package config

type ServerConfig struct {
	Port int `env:"PORT" yaml:"port"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: 3002,
	}
}
