package tarantool

import (
	"fmt"
	"net/url"
)

// ParseDSN parses a `tarantool://[user[:password]@]host[:port]` URI into
// a host:port address plus the user/password pair to merge into Opts.
// An absent port defaults to 3301; an absent user leaves both return
// values empty, which resolvedOpts.anonymous treats as anonymous.
func ParseDSN(dsn string) (addr, user, password string, err error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: parse dsn: %v", ErrBadArgument, err)
	}
	if u.Scheme != "tarantool" {
		return "", "", "", fmt.Errorf("%w: unsupported scheme %q", ErrBadArgument, u.Scheme)
	}
	if u.Host == "" {
		return "", "", "", fmt.Errorf("%w: dsn has no host", ErrBadArgument)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	addr = fmt.Sprintf("%s:%s", host, port)

	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	return addr, user, password, nil
}
