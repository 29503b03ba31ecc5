package tarantool

import (
	"time"

	"github.com/lattice-db/tarantool-go/metrics"
)

// Opts configures a Connect call. A nil timeout field means "use the
// one-second default"; a non-nil pointer to a zero Duration is honored
// literally and fails the dial or first request with ErrTimeout, per
// the wire contract's "zero deadline means fail immediately" rule. A
// plain time.Duration field cannot distinguish "caller didn't set this"
// from "caller wants zero," so the timeout fields are pointers.
type Opts struct {
	// User and Password authenticate the connection. Leaving both empty,
	// or setting User to "guest" with an empty Password, connects
	// anonymously and skips the AUTH exchange.
	User     string
	Password string

	ConnectTimeout *time.Duration
	DNSTimeout     *time.Duration
	ReadTimeout    *time.Duration
	WriteTimeout   *time.Duration

	// Logger receives info/debug records. A nil Logger discards them.
	Logger Logger

	// Metrics, when non-nil, is registered against every operation this
	// connection performs. A nil Metrics is a valid, fully inert choice.
	Metrics *metrics.Collectors
}

const (
	defaultTimeout = time.Second
	defaultPort    = "3301"
)

type resolvedOpts struct {
	user, password string

	connectTimeout time.Duration
	dnsTimeout     time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	logger  Logger
	metrics *metrics.Collectors
}

func (o Opts) resolve() resolvedOpts {
	r := resolvedOpts{
		user:     o.User,
		password: o.Password,
		logger:   o.Logger,
		metrics:  o.Metrics,
	}
	r.connectTimeout = durationOrDefault(o.ConnectTimeout)
	r.dnsTimeout = durationOrDefault(o.DNSTimeout)
	r.readTimeout = durationOrDefault(o.ReadTimeout)
	r.writeTimeout = durationOrDefault(o.WriteTimeout)
	if r.logger == nil {
		r.logger = nopLogger{}
	}
	return r
}

func durationOrDefault(d *time.Duration) time.Duration {
	if d == nil {
		return defaultTimeout
	}
	return *d
}

// anonymous reports whether these credentials should skip AUTH: no user
// at all, or the "guest" user with an empty password.
func (r resolvedOpts) anonymous() bool {
	if r.user == "" {
		return true
	}
	return r.user == "guest" && r.password == ""
}
