package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sunriver-travel/nilecms/internal/devstack"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var withServer bool
	flag.BoolVar(&withServer, "server", false, "also build and run the nilecms server container")
	flag.Parse()

	usage := `
Run the nilecms dev containers with the environment variables from the .env file.

Usage:

devstack [-h] [-server] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  devstack -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	var stack *devstack.Stack
	go func() {
		var err error
		stack, err = devstack.Create(nil, devstack.Options{StartServer: withServer})
		if err != nil {
			log.Fatalf("Failed to create dev containers: %v\n", err)
		}
	}()

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating dev containers...\n", sig)
	if stack != nil {
		stack.Terminate(nil)
	}
}
