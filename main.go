package main

import (
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/seamdb/seam/cmd"
)

func main() {
	cmd.Execute()
}
