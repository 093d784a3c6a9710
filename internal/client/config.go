package client

import (
	"strings"
	"time"
)

const DefaultTimeout = 15 * time.Second

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api
	BaseURL string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
