package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"raftengine/client"
)

func main() {
	memberAddr := flag.String("member", "localhost:50051", "address of a member to connect to")
	flag.Parse()

	log.Printf("connecting to member: %s", *memberAddr)

	consensusClient, err := client.NewConsensusClient(*memberAddr)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer consensusClient.Close()

	log.Println("connected")
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToUpper(parts[0])

		switch cmd {
		case "PUT":
			if len(parts) < 3 {
				fmt.Println("usage: PUT <key> <value>")
				continue
			}
			key := parts[1]
			value := strings.Join(parts[2:], " ")
			if err := consensusClient.Put(key, []byte(value)); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("ok")
			}

		case "DELETE":
			if len(parts) != 2 {
				fmt.Println("usage: DELETE <key>")
				continue
			}
			if err := consensusClient.Delete(parts[1]); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("ok")
			}

		case "COMMIT":
			index, term, err := consensusClient.CommitIndex()
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("commit index=%d term=%d\n", index, term)

		case "HELP":
			printHelp()

		case "QUIT", "EXIT":
			fmt.Println("disconnecting")
			return

		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("error reading input: %v", err)
	}
}

func printHelp() {
	fmt.Println(`
available commands:
  PUT <key> <value>   submit a put command and wait for it to commit
  DELETE <key>         submit a delete command and wait for it to commit
  COMMIT               show the dialed member's observed commit index/term
  HELP                 show this help message
  QUIT / EXIT          disconnect`)
}
