package main

import (
	"os"

	"github.com/southern-apparels/sa-erp/cmd/saerpctl/cli"
)

func main() {
	os.Exit(cli.Execute())
}
