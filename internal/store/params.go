package store

import (
	"encoding/json"
	"fmt"

	"github.com/onehub-labs/onehub/pkg/core"
)

// ConnectionType discriminates what a stored connection points at. Only
// database connections are interpreted by this layer; the other kinds are
// stored for the GUI and passed through untouched.
type ConnectionType string

const (
	ConnectionDatabase ConnectionType = "database"
	ConnectionSSH      ConnectionType = "ssh_sftp"
	ConnectionRedis    ConnectionType = "redis"
	ConnectionMongo    ConnectionType = "mongodb"
)

// DatabaseParams is the params payload for ConnectionDatabase rows,
// serialized as JSON into connections.params.
type DatabaseParams struct {
	DBType       string            `json:"db_type"`
	Host         string            `json:"host,omitempty"`
	Port         int               `json:"port,omitempty"`
	Username     string            `json:"username,omitempty"`
	Password     string            `json:"password,omitempty"`
	DatabaseName string            `json:"database_name,omitempty"`
	Path         string            `json:"path,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
	Params       map[string]any    `json:"params,omitempty"`
}

// Config converts stored parameters into a backend connection config.
func (p DatabaseParams) Config() core.Config {
	return core.Config{
		Type:     p.DBType,
		Path:     p.Path,
		Host:     p.Host,
		Port:     p.Port,
		Database: p.DatabaseName,
		Username: p.Username,
		Password: p.Password,
		Options:  p.Options,
		Params:   p.Params,
	}
}

// Encode serializes the parameters for the connections.params column.
func (p DatabaseParams) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode connection params: %w", err)
	}
	return string(raw), nil
}

// DatabaseParams decodes the params payload of a database connection.
func (c *Connection) DatabaseParams() (DatabaseParams, error) {
	var p DatabaseParams

	if c.Type != ConnectionDatabase {
		return p, fmt.Errorf("connection %s is %s, not a database", c.ID, c.Type)
	}
	if err := json.Unmarshal([]byte(c.Params), &p); err != nil {
		return p, fmt.Errorf("failed to decode connection params: %w", err)
	}

	return p, nil
}

// Config is shorthand for DatabaseParams().Config().
func (c *Connection) Config() (core.Config, error) {
	p, err := c.DatabaseParams()
	if err != nil {
		return core.Config{}, err
	}
	return p.Config(), nil
}
