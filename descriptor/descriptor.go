// Package descriptor loads REST service descriptors: one remote API
// connection and the tables it serves, read from YAML, JSON or TOML files.
//
// A descriptor looks like:
//
//	schema: github
//	description: GitHub REST API
//	connection:
//	  addresses: https://api.github.com, https://github-mirror.internal
//	  url: /orgs/{{.org}}/repos?per_page={{.limit}}&page={{div .offset .limit | add1}}
//	  headers:
//	    - name: Authorization
//	      value: Bearer {{.authorization}}
//	  page_size: 100
//	  response_timeout: 30s
//	tables:
//	  - name: repos
//	    root: $
//	    parameters:
//	      - {name: org, type: STRING, direction: REQUEST}
//	      - {name: id, type: LONG, path: $.id, direction: RESPONSE}
//
// Keys are case-insensitive; property names are lowercased on load.
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hugr-lab/restapi-airport/rest"
)

// Extensions lists the file extensions LoadDir picks up.
var Extensions = []string{".yaml", ".yml", ".json", ".toml"}

// ErrInvalidDescriptor is returned for descriptors that cannot describe any
// table, such as a file without a schema name it can default to.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Service is a loaded descriptor.
type Service struct {
	Schema      string     `mapstructure:"schema"`
	Description string     `mapstructure:"description"`
	Connection  Connection `mapstructure:"connection"`
	Tables      []Table    `mapstructure:"tables"`

	// Source is the file the descriptor was loaded from.
	Source string `mapstructure:"-"`
}

// Connection is the remote API connection shared by all tables of a service.
type Connection struct {
	// Addresses is a comma-separated string or a list.
	Addresses any      `mapstructure:"addresses"`
	Method    string   `mapstructure:"method"`
	URL       string   `mapstructure:"url"`
	Body      string   `mapstructure:"body"`
	Headers   []Header `mapstructure:"headers"`

	// Timeouts are a number of seconds or a duration string such as "1m30s".
	ConnectionTimeout any `mapstructure:"connection_timeout"`
	ResponseTimeout   any `mapstructure:"response_timeout"`

	PageSize  int `mapstructure:"page_size"`
	PageStart int `mapstructure:"page_start"`

	// Properties are available to every template of the service.
	Properties map[string]any `mapstructure:"properties"`
}

// Header is a request header template.
type Header struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// Table declares one table served by the connection.
type Table struct {
	Name       string      `mapstructure:"name"`
	Comment    string      `mapstructure:"comment"`
	Root       string      `mapstructure:"root"`
	Parameters []Parameter `mapstructure:"parameters"`
}

// Parameter declares one column of a table.
type Parameter struct {
	Name      string `mapstructure:"name"`
	Type      string `mapstructure:"type"`
	Path      string `mapstructure:"path"`
	Direction string `mapstructure:"direction"`
}

// Load reads a single descriptor file. The format is taken from the file
// extension. A missing schema name defaults to the file's base name.
func Load(path string) (*Service, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}

	var svc Service
	if err := v.Unmarshal(&svc); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor %s: %w", path, err)
	}
	svc.Source = path
	if svc.Schema == "" {
		svc.Schema = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if svc.Schema == "" {
		return nil, fmt.Errorf("%w: %s has no schema name", ErrInvalidDescriptor, path)
	}
	return &svc, nil
}

// LoadDir loads every descriptor file in dir, ordered by file name.
// Files that fail to load are reported in the combined error; the others
// are still returned.
func LoadDir(dir string) ([]*Service, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor directory: %w", err)
	}

	var services []*Service
	var errs error
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		svc, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		services = append(services, svc)
	}
	return services, errs
}

// ConnectionConfig converts the connection block.
func (c *Connection) ConnectionConfig() (rest.ConnectionConfig, error) {
	addresses, err := parseAddresses(c.Addresses)
	if err != nil {
		return rest.ConnectionConfig{}, err
	}
	connectTimeout, err := parseTimeout(c.ConnectionTimeout)
	if err != nil {
		return rest.ConnectionConfig{}, fmt.Errorf("connection_timeout: %w", err)
	}
	responseTimeout, err := parseTimeout(c.ResponseTimeout)
	if err != nil {
		return rest.ConnectionConfig{}, fmt.Errorf("response_timeout: %w", err)
	}

	headers := make([]rest.Header, 0, len(c.Headers))
	for _, h := range c.Headers {
		headers = append(headers, rest.Header{Name: h.Name, Value: h.Value})
	}

	return rest.ConnectionConfig{
		Addresses:       addresses,
		Method:          c.Method,
		URL:             c.URL,
		Body:            c.Body,
		Headers:         headers,
		ConnectTimeout:  connectTimeout,
		ResponseTimeout: responseTimeout,
		PageSize:        c.PageSize,
		PageStart:       c.PageStart,
	}, nil
}

// Fields converts the table parameters into REST fields.
func (t *Table) Fields() ([]rest.Field, error) {
	fields := make([]rest.Field, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		typ, err := rest.ParseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		dir, err := rest.ParseDirection(p.Direction)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		fields = append(fields, rest.Field{
			Name:      p.Name,
			Direction: dir,
			Type:      typ,
			JSONPath:  p.Path,
		})
	}
	return fields, nil
}

// BuildTables validates the service and builds its tables. Each table that
// fails validation is reported as a *rest.ConfigurationError in the
// combined error and left out of the result.
func (s *Service) BuildTables(opts ...rest.Option) ([]*rest.Table, error) {
	conn, connErr := s.Connection.ConnectionConfig()

	var tables []*rest.Table
	var errs error
	for _, t := range s.Tables {
		if connErr != nil {
			errs = multierr.Append(errs, &rest.ConfigurationError{Table: t.Name, Err: connErr})
			continue
		}
		fields, err := t.Fields()
		if err != nil {
			errs = multierr.Append(errs, &rest.ConfigurationError{Table: t.Name, Err: err})
			continue
		}

		tableOpts := append(slices.Clone(opts), rest.WithComment(t.Comment))
		if len(s.Connection.Properties) > 0 {
			tableOpts = append(tableOpts, rest.WithStaticProperties(s.Connection.Properties))
		}
		table, err := rest.NewTable(t.Name, conn, t.Root, fields, tableOpts...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		tables = append(tables, table)
	}
	return tables, errs
}

func parseAddresses(v any) ([]string, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case string:
		return rest.SplitAddresses(a), nil
	case []string:
		return rest.SplitAddresses(strings.Join(a, ",")), nil
	case []any:
		parts := make([]string, 0, len(a))
		for i, item := range a {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("address %d is %T, want string", i, item)
			}
			parts = append(parts, s)
		}
		return rest.SplitAddresses(strings.Join(parts, ",")), nil
	default:
		return nil, fmt.Errorf("addresses must be a string or a list, got %T", v)
	}
}

// parseTimeout reads plain numbers as seconds.
func parseTimeout(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case uint64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	default:
		return 0, fmt.Errorf("unsupported timeout value %v", v)
	}
}
