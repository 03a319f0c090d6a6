// Command devtoken mints an access token for local development against a
// server started with the same secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
)

func main() {
	uid := flag.String("i", "", "user id")
	email := flag.String("n", "", "email")
	secret := flag.String("s", "", "signing secret, as given to the server with -s")
	validity := flag.Duration("t", time.Hour, "token validity")
	flag.Parse()

	if *uid == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := auth.GenerateToken(*uid, *email, []byte(*secret), *validity)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tok)
}
