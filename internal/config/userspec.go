package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dockerdb/mongo-init/internal/model"
)

// userSpecFile mirrors the createUser document:
//
//	user: dockerMongoUser
//	pwd: dockerMongoPassword
//	roles:
//	  - role: readWrite
//	    db: dockerdb
type userSpecFile struct {
	User  string            `yaml:"user"`
	Pwd   string            `yaml:"pwd"`
	Roles []model.RoleGrant `yaml:"roles"`
}

// LoadUserSpec reads a single user spec from a YAML file. Unknown fields are
// rejected so a typo cannot silently drop a grant.
func LoadUserSpec(path string) (model.UserSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.UserSpec{}, fmt.Errorf("read user spec: %w", err)
	}
	return ParseUserSpec(data)
}

// ParseUserSpec decodes a YAML user spec.
func ParseUserSpec(data []byte) (model.UserSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f userSpecFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return model.UserSpec{}, errors.New("parse user spec: file is empty")
		}
		return model.UserSpec{}, fmt.Errorf("parse user spec: %w", err)
	}

	return model.UserSpec{
		Username: f.User,
		Password: f.Pwd,
		Roles:    f.Roles,
	}, nil
}
