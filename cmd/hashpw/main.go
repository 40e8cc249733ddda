// Command hashpw prints a bcrypt hash for STAFF_PASSWORD_HASH or
// ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpw -cost 12 'correct horse'
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lumenbooth/firefly-booth/internal/utils"
)

func main() {
	cost := flag.Int("cost", utils.DefaultCost, "bcrypt cost")
	flag.Parse()

	plain := strings.Join(flag.Args(), " ")
	if plain == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("hashpw: read password: %v", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	if plain == "" {
		log.Fatal("hashpw: empty password")
	}

	hash, err := utils.HashPassword(plain, *cost)
	if err != nil {
		log.Fatalf("hashpw: %v", err)
	}
	fmt.Println(hash)
}
