package main

import (
	"teamspark/internal/app/server"
)

func main() {
	server.Run()
}
