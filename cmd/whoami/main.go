// Command whoami prints the display identity carried by an access token. The
// token is decoded without verification; the output is a hint for UI code and
// says nothing about what the server will allow.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Skotchmaster/technotes/internal/session"
)

func main() {
	var token string
	flag.StringVar(&token, "token", "", "access token; read from TECHNOTES_ACCESS_TOKEN or stdin when empty")
	flag.Parse()

	if err := run(token, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "whoami:", err)
		os.Exit(1)
	}
}

func run(token string, in io.Reader, out io.Writer) error {
	if token == "" {
		token = os.Getenv("TECHNOTES_ACCESS_TOKEN")
	}
	if token == "" && in != nil {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")

	info, err := session.Derive(token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "whoami: token not decodable, showing anonymous identity")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
