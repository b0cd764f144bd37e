// Command atlas prints the DDL for the service's gorm models. It is the
// external schema source for `atlas migrate diff`.
package main

import (
	"fmt"
	"io"
	"os"

	"hbs/src/models"

	"ariga.io/atlas-provider-gorm/gormschema"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(models.All()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
