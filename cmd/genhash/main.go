// Command genhash prints the bcrypt hash of a password, for seeding accounts by hand.
// Uso: go run ./cmd/genhash <senha>
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 || len(os.Args[1]) < 8 {
		fmt.Fprintln(os.Stderr, "uso: genhash <senha com 8+ caracteres>")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}
