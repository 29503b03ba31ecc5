// Command example demonstrates basic library usage: connect, insert a
// tuple, and select it back by primary key.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	tarantool "github.com/lattice-db/tarantool-go"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := tarantool.Connect(ctx, "127.0.0.1:3301", tarantool.Opts{
		User:   "guest",
		Logger: tarantool.NewStdLogger(),
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := conn.ParseSchema(ctx); err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	if _, err := conn.Insert(ctx, "examples", []interface{}{1, "vlad", 75}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	resp, err := conn.Get(ctx, "examples", []interface{}{1})
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}

	for _, tuple := range resp.Data {
		name, _ := tuple.AsString(1)
		wage, _ := tuple.AsInt64(2)
		fmt.Printf("%s earns %d\n", name, wage)
	}
	return nil
}
