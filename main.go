package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/plsem/stalecheck/utils"

	"github.com/fatih/color"
)

var opts = utils.Opts()

func main() {
	utils.ParseArgs()

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatalln("No trace files given")
	}

	total := 0
	for _, path := range paths {
		tr, err := loadTrace(path)
		if err != nil {
			log.Fatalln("Failed loading trace", path, "-", err)
		}

		found, err := runTrace(tr, opts.Task().IsReplay())
		if err != nil {
			log.Fatalln(err)
		}
		total += found
	}

	switch {
	case total == 0:
		fmt.Println(color.GreenString("No accesses to invalidated addresses found"))
	default:
		fmt.Println(color.RedString(fmt.Sprintf("%d access(es) to invalidated addresses found", total)))
		if !opts.NoAbort() {
			os.Exit(1)
		}
	}
}
