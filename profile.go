package xawk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a set of run settings kept in a YAML file:
//
//	fs: ","
//	ofs: "\t"
//	header: true
//	vars:
//	  threshold: "100"
//
// Fields left out of the file leave the Config untouched.
type Profile struct {
	FS      *string           `yaml:"fs"`
	OFS     *string           `yaml:"ofs"`
	RS      *string           `yaml:"rs"`
	ORS     *string           `yaml:"ors"`
	CONVFMT *string           `yaml:"convfmt"`
	OFMT    *string           `yaml:"ofmt"`
	Vars    map[string]string `yaml:"vars"`
	Header  *bool             `yaml:"header"`
	POSIX   *bool             `yaml:"posix"`
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	prof, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prof, nil
}

// ParseProfile decodes a YAML profile. Unknown keys are an error.
func ParseProfile(data []byte) (*Profile, error) {
	var prof Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&prof); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &prof, nil
}

// Apply merges the profile into c. Profile values replace the separators
// and formats; profile variables are added without replacing variables
// c already sets.
func (p *Profile) Apply(c *Config) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.FS, p.FS)
	set(&c.OFS, p.OFS)
	set(&c.ORS, p.ORS)
	set(&c.CONVFMT, p.CONVFMT)
	set(&c.OFMT, p.OFMT)
	if p.Header != nil {
		c.Header = *p.Header
	}
	if p.POSIX != nil {
		posix := *p.POSIX
		c.POSIXRegex = &posix
	}
	if len(p.Vars) > 0 && c.Variables == nil {
		c.Variables = make(map[string]string, len(p.Vars))
	}
	// An empty RS selects paragraph mode, which Config.RS can't express.
	if p.RS != nil && *p.RS == "" {
		if c.Variables == nil {
			c.Variables = make(map[string]string)
		}
		c.Variables["RS"] = ""
	} else {
		set(&c.RS, p.RS)
	}
	for name, value := range p.Vars {
		if _, ok := c.Variables[name]; !ok {
			c.Variables[name] = value
		}
	}
}
