package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aidaptics/lead-relay/webhook/signature"
)

/* sign - prints the Typeform-Signature header value for a payload file
 * Usage: go run cmd/sign/main.go -secret S [-hex] payload.json
 * Useful to replay a captured submission with curl against a local relay
 */

func main() {
	secret := flag.String("secret", os.Getenv("WEBHOOK_SECRET_KEY"), "shared webhook secret")
	asHex := flag.Bool("hex", false, "print the digest as hex instead of base64")
	flag.Parse()

	if flag.NArg() != 1 || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: sign -secret S [-hex] payload.json")
		os.Exit(2)
	}

	body, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading payload: %v\n", err)
		os.Exit(1)
	}

	if *asHex {
		fmt.Println(signature.SignHex(body, *secret))
		return
	}
	fmt.Println(signature.Sign(body, *secret))
}
