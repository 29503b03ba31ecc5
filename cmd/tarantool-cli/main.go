// Command tarantool-cli issues a single request against a server and
// prints the result, for scripting and quick manual probes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tarantool "github.com/lattice-db/tarantool-go"
	"github.com/lattice-db/tarantool-go/highlight"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("tarantool-cli", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "tarantool-cli — issue one request against a server and print the result\n\nUsage:\n  tarantool-cli [flags] <dsn> ping\n  tarantool-cli [flags] <dsn> eval <expression> [arg ...]\n  tarantool-cli [flags] <dsn> call <function> [arg ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	timeout := fs.Duration("timeout", time.Second, "connect/request timeout")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("tarantool-cli %s\n", version)
		return
	}

	if fs.NArg() < 2 {
		fs.Usage()
		os.Exit(1)
	}

	if err := run(fs.Arg(0), fs.Arg(1), fs.Args()[2:], *timeout); err != nil {
		log.Fatal(err)
	}
}

func run(dsn, command string, args []string, timeout time.Duration) error {
	addr, user, password, err := tarantool.ParseDSN(dsn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := tarantool.Connect(ctx, addr, tarantool.Opts{
		User:           user,
		Password:       password,
		ConnectTimeout: &timeout,
		ReadTimeout:    &timeout,
		WriteTimeout:   &timeout,
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	switch command {
	case "ping":
		_, err := conn.Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Println("PONG")
		return nil

	case "eval":
		if len(args) < 1 {
			return fmt.Errorf("eval requires an expression")
		}
		expr := args[0]
		fmt.Fprintln(os.Stderr, highlight.Lua(expr))
		resp, err := conn.Eval(ctx, expr, parseArgs(args[1:]))
		if err != nil {
			return err
		}
		return printResult(resp)

	case "call":
		if len(args) < 1 {
			return fmt.Errorf("call requires a function name")
		}
		fn := args[0]
		fmt.Fprintln(os.Stderr, highlight.Lua(fn))
		resp, err := conn.Call(ctx, fn, parseArgs(args[1:]))
		if err != nil {
			return err
		}
		return printResult(resp)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// parseArgs interprets each CLI argument as a JSON scalar when possible
// (so "42" becomes an int and "true" a bool), falling back to a plain
// string, the same latitude the server's own Lua args accept.
func parseArgs(raw []string) []interface{} {
	args := make([]interface{}, 0, len(raw))
	for _, r := range raw {
		var v interface{}
		if err := json.Unmarshal([]byte(r), &v); err == nil {
			if f, ok := v.(float64); ok && f == float64(int64(f)) {
				v = int64(f)
			}
			args = append(args, v)
			continue
		}
		args = append(args, r)
	}
	return args
}

func printResult(resp *tarantool.Response) error {
	rows := make([][]interface{}, len(resp.Data))
	for i, t := range resp.Data {
		row := make([]interface{}, t.Len())
		for j := range row {
			row[j] = t.Raw(j)
		}
		rows[i] = row
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(strings.TrimSpace(string(b)))
	return nil
}
