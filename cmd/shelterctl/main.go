// Command shelterctl runs the shelter record and identity operations from a
// terminal, against the same store and with the same defaults as the server.
//
//	shelterctl read --rescue water -o table
//	shelterctl update --filter '{"animal_id":"A1"}' --changes '{"outcome_type":"Adoption"}'
//	shelterctl register ranger --password -
package main

import (
	"fmt"
	"os"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/pkg/errors"
)

func main() {
	if err := newCLI(shelter.Connect).execute(); err != nil {
		if !errors.Is(err, errNotOK) {
			fmt.Fprintln(os.Stderr, "shelterctl:", err)
		}
		os.Exit(1)
	}
}
