package shelter

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/system/digest"
)

// Environment variables consulted by Resolve for any field left empty.
const (
	EnvUser       = "AAC_USER"
	EnvPassword   = "AAC_PASS"
	EnvHost       = "AAC_HOST"
	EnvPort       = "AAC_PORT"
	EnvDatabase   = "AAC_DB"
	EnvCollection = "AAC_COL"
	EnvSalt       = "AAC_SALT"
	EnvDigest     = "AAC_DIGEST"
)

// Defaults applied after the environment. There is no default
// user or password.
const (
	DefaultHost                   = "localhost"
	DefaultPort                   = 27017
	DefaultDatabase               = "AAC"
	DefaultCollection             = "animals"
	DefaultSalt                   = "static_salt"
	DefaultServerSelectionTimeout = 5 * time.Second
)

// Config describes how to reach the document store and how to digest passwords.
// Zero values are filled by Resolve.
type Config struct {
	User       string
	Password   string
	Host       string
	Port       int
	Database   string
	Collection string

	Salt         string // deployment-wide digest salt
	DigestScheme string // digest.SchemeSaltedSHA256 (default) or digest.SchemeBcrypt

	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

// Resolve returns a copy of c with every empty field taken from the
// environment, then from the package defaults. Explicit values always win.
func (c Config) Resolve() (Config, error) {
	return c.resolveWith(os.LookupEnv)
}

func (c Config) resolveWith(lookup func(string) (string, bool)) (Config, error) {
	env := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return v
	}
	pick := func(explicit, key, def string) string {
		if explicit != "" {
			return explicit
		}
		if v := env(key); v != "" {
			return v
		}
		return def
	}

	out := c
	out.User = pick(c.User, EnvUser, "")
	out.Password = pick(c.Password, EnvPassword, "")
	out.Host = pick(c.Host, EnvHost, DefaultHost)
	out.Database = pick(c.Database, EnvDatabase, DefaultDatabase)
	out.Collection = pick(c.Collection, EnvCollection, DefaultCollection)
	out.Salt = pick(c.Salt, EnvSalt, DefaultSalt)
	out.DigestScheme = pick(c.DigestScheme, EnvDigest, digest.SchemeSaltedSHA256)

	if out.Port == 0 {
		out.Port = DefaultPort
		if v := env(EnvPort); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p <= 0 || p > 65535 {
				return Config{}, fmt.Errorf("%s: invalid port %q", EnvPort, v)
			}
			out.Port = p
		}
	}
	if out.ServerSelectionTimeout <= 0 {
		out.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	return out, nil
}

// UsesDefaultSalt reports whether the digest salt is the built-in default.
func (c Config) UsesDefaultSalt() bool {
	return c.Salt == "" || c.Salt == DefaultSalt
}

// URI renders the mongodb:// connection string. Credentials are included only
// when a user is set, and are escaped.
func (c Config) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// Target is the connection target without credentials, for logs and errors.
func (c Config) Target() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) + "/" + c.Database
}
