package main

import "github.com/vietddude/seqproxy/internal/cli"

func main() {
	cli.Execute()
}
