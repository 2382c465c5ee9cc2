package main

import (
	"github.com/invenio-contrib/statsdash/cmd/app"
)

func main() {
	app.Run()
}
