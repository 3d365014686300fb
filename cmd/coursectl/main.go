package main

import (
	"log"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("coursectl: %v", err)
		os.Exit(1)
	}
}
