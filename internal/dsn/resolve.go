// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

// Fields is one layer of connection settings: the saved config record, the
// command-line flags or the environment. Zero values mean "not set".
type Fields struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// URL is a full connection URL (--dsn, DATABASE_URL); discrete fields of
	// the same layer override the parts it sets.
	URL string
}

// HasConnection reports whether the layer names a user and a host, which
// makes a saved record authoritative.
func (f Fields) HasConnection() bool {
	return f.User != "" && f.Host != ""
}

// Resolve picks the connection to use. A saved record with both DBUSER and
// DBHOST wins outright; otherwise each field comes from the flags, falling
// back to the environment. A missing port becomes the engine default.
//
// The returned descriptor has an empty Host when nothing was configured;
// the caller then runs the setup wizard.
func Resolve(saved, flags, env Fields) (Descriptor, error) {
	if saved.HasConnection() {
		return finalize(saved)
	}

	var merged Fields
	for _, layer := range []Fields{env, flags} {
		if layer.URL != "" {
			info, err := ParseInfo(layer.URL)
			if err != nil {
				return Descriptor{}, err
			}
			d, err := FromInfo(info)
			if err != nil {
				return Descriptor{}, err
			}
			merged = overlay(merged, Fields{
				Type:     string(d.Type),
				Host:     d.Host,
				Port:     d.Port,
				User:     d.User,
				Password: d.Password,
				Database: d.Database,
			})
		}
		merged = overlay(merged, layer)
	}
	return finalize(merged)
}

func overlay(base, top Fields) Fields {
	if top.Type != "" {
		base.Type = top.Type
	}
	if top.Host != "" {
		base.Host = top.Host
	}
	if top.Port != 0 {
		base.Port = top.Port
	}
	if top.User != "" {
		base.User = top.User
	}
	if top.Password != "" {
		base.Password = top.Password
	}
	if top.Database != "" {
		base.Database = top.Database
	}
	return base
}

func finalize(f Fields) (Descriptor, error) {
	typ, err := ParseType(f.Type)
	if err != nil {
		return Descriptor{}, err
	}
	port := f.Port
	if port == 0 {
		port = typ.DefaultPort()
	}
	return Descriptor{
		Type:     typ,
		Host:     f.Host,
		Port:     port,
		User:     f.User,
		Password: f.Password,
		Database: f.Database,
	}, nil
}
