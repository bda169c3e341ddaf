// lexmatch builds surface-form databases from an entity catalog and
// annotates text against them.
package main

import (
	"os"

	"github.com/cognicore/lexmatch/cmd/lexmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
